package enhancer

import (
	"fmt"
	"strings"

	"github.com/polisai/codeforge/pkg/analysis"
	"github.com/polisai/codeforge/pkg/domain"
)

func (s *Service) finish(req domain.TransformationRequest, level domain.EnhancementLevel, code string, source domain.ResultSource, applied []string, warnings []string) *domain.TransformationResult {
	stats := s.computeStats(req.SourceCode, code, req.Level, applied)
	if warnings == nil {
		warnings = []string{}
	}
	return &domain.TransformationResult{
		RequestID:     req.RequestID,
		Code:          code,
		Stats:         stats,
		Documentation: renderDocumentation(req, level, stats, source, applied, warnings),
		Warnings:      warnings,
		Source:        source,
	}
}

// degraded returns the original source untouched with both failures recorded.
func (s *Service) degraded(req domain.TransformationRequest, remoteErr, fallbackErr error) *domain.TransformationResult {
	lines := analysis.CountLines(req.SourceCode)
	failure := &domain.DomainError{
		Err:  fallbackErr,
		Code: domain.ErrorCode(fallbackErr),
		Details: map[string]any{
			"requestId":       req.RequestID,
			"remoteError":     remoteErr.Error(),
			"remoteErrorCode": domain.ErrorCode(remoteErr),
		},
	}
	stats := domain.Stats{
		OriginalLines:     lines,
		NewLines:          lines,
		OptimizationLevel: req.Level,
		Error:             failure.Error(),
	}

	var sb strings.Builder
	sb.WriteString("# Transformation Failed\n\n")
	fmt.Fprintf(&sb, "Request `%s` could not be enhanced; the original source is returned unchanged.\n\n", req.RequestID)
	fmt.Fprintf(&sb, "- Original error (%s): %v\n", failure.Details["remoteErrorCode"], remoteErr)
	fmt.Fprintf(&sb, "- Fallback error (%s): %v\n", domain.ErrorCode(failure), failure)

	return &domain.TransformationResult{
		RequestID:     req.RequestID,
		Code:          req.SourceCode,
		Stats:         stats,
		Documentation: sb.String(),
		Warnings:      []string{remoteWarning(remoteErr), "local simulation failed; original source returned"},
		Source:        domain.SourceDegraded,
		Failure:       failure,
	}
}

func renderDocumentation(req domain.TransformationRequest, level domain.EnhancementLevel, stats domain.Stats, source domain.ResultSource, applied, warnings []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Enhancement Report: Level %d", req.Level)
	if level.Name != "" {
		fmt.Fprintf(&sb, " (%s)", level.Name)
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Request `%s` was served by the %s path.\n\n", req.RequestID, strings.ReplaceAll(string(source), "_", " "))

	sb.WriteString("## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Original lines | %d |\n", stats.OriginalLines)
	fmt.Fprintf(&sb, "| New lines | %d |\n", stats.NewLines)
	fmt.Fprintf(&sb, "| Lines added | %d |\n", stats.LinesAdded)
	fmt.Fprintf(&sb, "| Size reduction | %.1f%% |\n", stats.SizeReduction)
	fmt.Fprintf(&sb, "| Performance improvement | %d%% |\n", stats.PerformanceImprovement)
	fmt.Fprintf(&sb, "| Fluidity improvement | %d%% |\n", stats.FluidityImprovement)
	fmt.Fprintf(&sb, "| Modules applied | %d |\n", stats.ModulesApplied)

	if len(applied) > 0 {
		sb.WriteString("\n## Modules\n\n")
		for _, id := range applied {
			fmt.Fprintf(&sb, "- %s\n", id)
		}
	}

	if ea := req.EffectAnalysis; ea != nil {
		sb.WriteString("\n## Effect Analysis\n\n")
		if ea.Summary != "" {
			sb.WriteString(ea.Summary + "\n")
		}
		if ea.Complexity != "" {
			fmt.Fprintf(&sb, "\nComplexity: %s\n", ea.Complexity)
		}
		if len(ea.Effects) > 0 {
			sb.WriteString("\n")
			for _, effect := range ea.Effects {
				fmt.Fprintf(&sb, "- %s\n", effect)
			}
		}
	}

	if len(warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}

	return sb.String()
}
