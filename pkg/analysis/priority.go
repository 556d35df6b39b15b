package analysis

import (
	"strings"

	"github.com/polisai/codeforge/pkg/domain"
)

const patternMatchWeight = 10

var impactBonus = map[domain.Impact]int{
	domain.ImpactRevolutionary: 30,
	domain.ImpactDramatic:      25,
	domain.ImpactInnovative:    20,
	domain.ImpactHigh:          15,
	domain.ImpactEnterprise:    12,
	domain.ImpactCritical:      10,
	domain.ImpactMedium:        5,
	domain.ImpactLow:           2,
}

// Score rates how well module fits a profile at the current level.
//
// Each code pattern contained (case-insensitively) in the name of an active
// profile flag adds 10; the impact table and level/complexity alignment add the rest.
func Score(module domain.EnhancementModule, profile domain.PatternProfile, currentLevel int) int {
	score := patternMatchWeight * matchingPatterns(module.CodePatterns, profile.ActiveFeatures())
	score += impactBonus[module.Impact]

	if currentLevel <= 1 && module.Complexity == domain.ComplexityLow {
		score += 5
	}
	if currentLevel >= 2 && module.Complexity == domain.ComplexityMedium {
		score += 5
	}
	if currentLevel >= 3 && module.Complexity == domain.ComplexityHigh {
		score += 5
	}
	return score
}

// Bucket maps a score onto a priority.
func Bucket(score int) domain.Priority {
	switch {
	case score >= 40:
		return domain.PriorityCritical
	case score >= 25:
		return domain.PriorityHigh
	case score >= 15:
		return domain.PriorityMedium
	case score >= 5:
		return domain.PriorityLow
	default:
		return domain.PriorityNone
	}
}

func matchingPatterns(patterns, active []string) int {
	count := 0
	for _, pattern := range patterns {
		p := strings.ToLower(strings.TrimSpace(pattern))
		if p == "" {
			continue
		}
		for _, feature := range active {
			if strings.Contains(strings.ToLower(feature), p) {
				count++
				break
			}
		}
	}
	return count
}
