package analysis

import (
	"fmt"
	"sort"

	"github.com/polisai/codeforge/pkg/domain"
)

// MaxSuggestions caps the ranked suggestion list.
const MaxSuggestions = 10

var complexityWeight = map[domain.Complexity]int{
	domain.ComplexityLow:      1,
	domain.ComplexityMedium:   2,
	domain.ComplexityHigh:     3,
	domain.ComplexityVeryHigh: 4,
}

// Rank scores modules (in registry order) against profile and returns at most
// MaxSuggestions suggestions sorted by priority, with the recommended level and
// the summed estimated gain of the returned suggestions.
func Rank(modules []domain.EnhancementModule, profile domain.PatternProfile, currentLevel int) domain.Analysis {
	suggestions := make([]domain.Suggestion, 0, len(modules))
	for _, m := range modules {
		score := Score(m, profile, currentLevel)
		priority := Bucket(score)
		if priority == domain.PriorityNone {
			continue
		}
		suggestions = append(suggestions, domain.Suggestion{
			ModuleID:      m.ID,
			Name:          m.Name,
			Priority:      priority,
			Score:         score,
			EstimatedGain: m.PerformanceGain,
			Complexity:    m.Complexity,
		})
	}

	// Ties keep registry order.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority.Rank() > suggestions[j].Priority.Rank()
	})
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}

	total := 0.0
	for _, s := range suggestions {
		total += s.EstimatedGain
	}

	return domain.Analysis{
		Suggestions:        suggestions,
		RecommendedLevel:   RecommendLevel(suggestions, currentLevel),
		TotalEstimatedGain: total,
		Profile:            profile,
	}
}

// RecommendLevel picks the level id to suggest for a ranked suggestion list.
func RecommendLevel(suggestions []domain.Suggestion, currentLevel int) string {
	highPriority := 0
	complexity := 0
	for _, s := range suggestions {
		if s.Priority == domain.PriorityCritical || s.Priority == domain.PriorityHigh {
			highPriority++
		}
		w, ok := complexityWeight[s.Complexity]
		if !ok {
			w = 1
		}
		complexity += w
	}

	switch {
	case highPriority >= 8 && complexity >= 20:
		return "level_6_revolutionary"
	case highPriority >= 5 && complexity >= 15:
		return "level_5_enterprise"
	case highPriority >= 3:
		return "level_4_professional_plus"
	case currentLevel >= 3:
		return "level_4_professional_plus"
	default:
		return fmt.Sprintf("level_%d_enhanced", min(currentLevel+1, 3))
	}
}
