package enhancer

import (
	"math"

	"github.com/polisai/codeforge/pkg/analysis"
	"github.com/polisai/codeforge/pkg/domain"
)

type band struct{ lo, hi float64 }

// performanceBands are the estimated improvement ranges per level. Levels
// above 3 share the level 3 band.
var performanceBands = map[int]band{
	1: {25, 50},
	2: {50, 87},
	3: {80, 130},
}

func bandFor(level int) band {
	if b, ok := performanceBands[level]; ok {
		return b
	}
	return performanceBands[3]
}

var fixedModuleCounts = map[int]int{1: 7, 2: 13, 3: 23}

const defaultModuleCount = 7

func modulesApplied(level int, applied []string) int {
	if n, ok := fixedModuleCounts[level]; ok {
		return n
	}
	if len(applied) > 0 {
		return len(applied)
	}
	return defaultModuleCount
}

func (s *Service) computeStats(original, code string, level int, applied []string) domain.Stats {
	b := bandFor(level)
	perf := int(math.Round(b.lo + s.random()*(b.hi-b.lo)))
	perf = min(max(perf, int(b.lo)), int(b.hi))

	originalLines := analysis.CountLines(original)
	newLines := analysis.CountLines(code)

	var sizeReduction float64
	if len(original) > 0 {
		sizeReduction = math.Round(float64(len(original)-len(code))/float64(len(original))*1000) / 10
	}

	return domain.Stats{
		OriginalLines:          originalLines,
		NewLines:               newLines,
		PerformanceImprovement: perf,
		ModulesApplied:         modulesApplied(level, applied),
		SizeReduction:          sizeReduction,
		FluidityImprovement:    int(math.Round(float64(perf) * 0.8)),
		LinesAdded:             newLines - originalLines,
		OptimizationLevel:      level,
	}
}
