package registry

import "github.com/polisai/codeforge/pkg/domain"

// DefaultLevels is the built-in three level catalog used when no level file loads.
func DefaultLevels() []domain.EnhancementLevel {
	return []domain.EnhancementLevel{
		{
			ID:                   "level_1_standard",
			Number:               1,
			Name:                 "Standard",
			ModuleIDs:            []string{"performance", "colors", "animations"},
			EstimatedImprovement: "25-50%",
			Complexity:           domain.ComplexityLow,
			Instruction:          "Optimize performance, refine the color palette and smooth the animations. Keep the original behaviour.",
		},
		{
			ID:                   "level_2_professional",
			Number:               2,
			Name:                 "Professional",
			ModuleIDs:            []string{"performance", "colors", "animations", "responsive", "accessibility"},
			EstimatedImprovement: "50-87%",
			Complexity:           domain.ComplexityMedium,
			Instruction:          "Apply standard optimizations, make the canvas responsive and respect accessibility preferences such as reduced motion.",
		},
		{
			ID:     "level_3_premium",
			Number: 3,
			Name:   "Premium",
			ModuleIDs: []string{
				"performance", "colors", "animations", "responsive", "accessibility",
				"ai-prediction", "smart-adaptation",
			},
			EstimatedImprovement: "80-130%",
			Complexity:           domain.ComplexityHigh,
			Instruction:          "Apply professional optimizations plus predictive frame scheduling and adaptive quality based on measured frame rate.",
		},
	}
}

// DefaultModules is the built-in module catalog backing the default levels.
func DefaultModules() []domain.EnhancementModule {
	return []domain.EnhancementModule{
		{
			ID:              "performance",
			Name:            "Performance Optimizer",
			Complexity:      domain.ComplexityLow,
			Impact:          domain.ImpactHigh,
			PerformanceGain: 25,
			CodePatterns:    []string{"performance", "animation"},
			Triggers:        []string{"for", "length"},
		},
		{
			ID:              "colors",
			Name:            "Color Palette Enhancer",
			Complexity:      domain.ComplexityLow,
			Impact:          domain.ImpactMedium,
			PerformanceGain: 5,
			CodePatterns:    []string{"canvas"},
			Triggers:        []string{"fillStyle", "strokeStyle"},
		},
		{
			ID:              "animations",
			Name:            "Animation Smoother",
			Complexity:      domain.ComplexityMedium,
			Impact:          domain.ImpactDramatic,
			PerformanceGain: 15,
			CodePatterns:    []string{"animation", "math"},
			Triggers:        []string{"requestAnimationFrame"},
		},
		{
			ID:              "responsive",
			Name:            "Responsive Canvas",
			Complexity:      domain.ComplexityMedium,
			Impact:          domain.ImpactHigh,
			PerformanceGain: 10,
			CodePatterns:    []string{"canvas"},
			Triggers:        []string{"width", "height"},
		},
		{
			ID:              "accessibility",
			Name:            "Accessibility Guard",
			Complexity:      domain.ComplexityLow,
			Impact:          domain.ImpactEnterprise,
			PerformanceGain: 3,
			CodePatterns:    []string{"animation"},
		},
		{
			ID:              "ai-prediction",
			Name:            "Predictive Frame Scheduler",
			Complexity:      domain.ComplexityHigh,
			Impact:          domain.ImpactInnovative,
			PerformanceGain: 30,
			CodePatterns:    []string{"particle", "math"},
		},
		{
			ID:              "smart-adaptation",
			Name:            "Adaptive Quality",
			Complexity:      domain.ComplexityHigh,
			Impact:          domain.ImpactRevolutionary,
			PerformanceGain: 35,
			CodePatterns:    []string{"performance", "particle", "transforms"},
		},
	}
}
