package analysis

import (
	"regexp"
	"strings"

	"github.com/polisai/codeforge/pkg/domain"
)

// largeSourceLines marks a source as a performance risk by size alone.
const largeSourceLines = 500

var (
	animationLoopPattern = regexp.MustCompile(`requestAnimationFrame|setInterval|setTimeout|animate\s*\(`)
	complexMathPattern   = regexp.MustCompile(`Math\.(sin|cos|tan|atan2|sqrt|pow)\s*\(`)
	transformPattern     = regexp.MustCompile(`rotate|transform|matrix|perspective|rotation`)
	lengthLoopPattern    = regexp.MustCompile(`for\s*\([^)]*\.length`)
)

// Extract derives the pattern profile of code. It never fails.
func Extract(code string) domain.PatternProfile {
	lines := CountLines(code)
	return domain.PatternProfile{
		Has2DCanvas:          strings.Contains(code, "canvas") || strings.Contains(code, "getContext"),
		HasAnimationLoop:     animationLoopPattern.MatchString(code),
		HasComplexMath:       complexMathPattern.MatchString(code),
		HasParticleSystem:    strings.Contains(code, "particle") || strings.Contains(code, "Particle"),
		Has3DTransforms:      transformPattern.MatchString(code),
		HasPerformanceIssues: lines > largeSourceLines || lengthLoopPattern.MatchString(code),
		LineCount:            lines,
	}
}

// CountLines counts newline-separated lines; the empty string has zero lines.
func CountLines(code string) int {
	if code == "" {
		return 0
	}
	return strings.Count(code, "\n") + 1
}
