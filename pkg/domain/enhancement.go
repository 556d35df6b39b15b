package domain

// Complexity classifies how invasive a module or level is.
type Complexity string

const (
	ComplexityLow      Complexity = "low"
	ComplexityMedium   Complexity = "medium"
	ComplexityHigh     Complexity = "high"
	ComplexityVeryHigh Complexity = "very_high"
)

// Impact classifies the expected effect of a module.
type Impact string

const (
	ImpactLow           Impact = "low"
	ImpactMedium        Impact = "medium"
	ImpactHigh          Impact = "high"
	ImpactDramatic      Impact = "dramatic"
	ImpactRevolutionary Impact = "revolutionary"
	ImpactInnovative    Impact = "innovative"
	ImpactEnterprise    Impact = "enterprise"
	ImpactCritical      Impact = "critical"
)

// Priority is the bucketed score of a module suggestion.
type Priority string

const (
	PriorityNone     Priority = "none"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities; higher is more urgent. PriorityNone ranks 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// EnhancementModule is an independently applicable code rewrite rule with metadata.
type EnhancementModule struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Description     string     `json:"description,omitempty" yaml:"description,omitempty"`
	Complexity      Complexity `json:"complexity" yaml:"complexity"`
	Impact          Impact     `json:"impact" yaml:"impact"`
	PerformanceGain float64    `json:"performanceGain" yaml:"performanceGain"`
	CodePatterns    []string   `json:"codePatterns,omitempty" yaml:"codePatterns,omitempty"`
	Triggers        []string   `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// EnhancementLevel is a named bundle of modules representing a transformation tier.
type EnhancementLevel struct {
	ID                   string     `json:"id" yaml:"id"`
	Number               int        `json:"number" yaml:"number"`
	Name                 string     `json:"name" yaml:"name"`
	ModuleIDs            []string   `json:"modules" yaml:"modules"`
	EstimatedImprovement string     `json:"estimatedImprovement" yaml:"estimatedImprovement"`
	Complexity           Complexity `json:"complexity" yaml:"complexity"`
	Instruction          string     `json:"instruction" yaml:"instruction"`
}

// PatternProfile is the feature set derived from a source text.
type PatternProfile struct {
	Has2DCanvas          bool `json:"has2DCanvas"`
	HasAnimationLoop     bool `json:"hasAnimationLoop"`
	HasComplexMath       bool `json:"hasComplexMath"`
	HasParticleSystem    bool `json:"hasParticleSystem"`
	Has3DTransforms      bool `json:"has3DTransforms"`
	HasPerformanceIssues bool `json:"hasPerformanceIssues"`
	LineCount            int  `json:"lineCount"`
}

// ActiveFeatures returns the textual names of the true-valued flags in declaration order.
func (p PatternProfile) ActiveFeatures() []string {
	flags := []struct {
		name string
		on   bool
	}{
		{"has2DCanvas", p.Has2DCanvas},
		{"hasAnimationLoop", p.HasAnimationLoop},
		{"hasComplexMath", p.HasComplexMath},
		{"hasParticleSystem", p.HasParticleSystem},
		{"has3DTransforms", p.Has3DTransforms},
		{"hasPerformanceIssues", p.HasPerformanceIssues},
	}
	var active []string
	for _, f := range flags {
		if f.on {
			active = append(active, f.name)
		}
	}
	return active
}

// Suggestion is a ranked module recommendation.
type Suggestion struct {
	ModuleID      string     `json:"moduleId"`
	Name          string     `json:"name"`
	Priority      Priority   `json:"priority"`
	Score         int        `json:"score"`
	EstimatedGain float64    `json:"estimatedGain"`
	Complexity    Complexity `json:"complexity"`
}

// Analysis is the output of AnalyzeAndSuggest.
type Analysis struct {
	Suggestions        []Suggestion   `json:"suggestions"`
	RecommendedLevel   string         `json:"recommendedLevel"`
	TotalEstimatedGain float64        `json:"totalEstimatedGain"`
	Profile            PatternProfile `json:"profile"`
}
