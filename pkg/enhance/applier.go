package enhance

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/polisai/codeforge/pkg/domain"
	"github.com/polisai/codeforge/pkg/registry"
)

// Result is the outcome of Apply.
type Result struct {
	Code string
	// Applied holds human-readable descriptions of every successful step.
	Applied []string
	// AppliedModules lists the module ids whose rule succeeded, in order.
	AppliedModules      []string
	PerformanceEstimate float64
	Warnings            []string
}

// Option configures an Applier.
type Option func(*Applier)

// WithRule registers or replaces the rule for a module id.
func WithRule(moduleID string, rule Rule) Option {
	return func(a *Applier) {
		a.rules[moduleID] = rule
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Applier) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Applier applies module rules from a registry.
type Applier struct {
	registry *registry.Registry
	rules    map[string]Rule
	logger   *slog.Logger
}

// NewApplier creates an Applier over reg with DefaultRules.
func NewApplier(reg *registry.Registry, opts ...Option) *Applier {
	if reg == nil {
		reg = registry.New(nil, nil)
	}
	a := &Applier{
		registry: reg,
		rules:    DefaultRules(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply runs the rules for moduleIDs in order, then the level pass for
// levelID. Unknown module ids are skipped without a warning.
func (a *Applier) Apply(code string, moduleIDs []string, levelID string) Result {
	result := Result{Code: code}

	for _, id := range moduleIDs {
		module, ok := a.registry.Module(id)
		if !ok {
			continue
		}

		rule, ok := a.rules[id]
		if !ok || rule.Rewrite == nil {
			result.Code = strings.TrimRight(result.Code, "\n") + fmt.Sprintf("\n\n// TODO: %s (%s) enhancement\n", module.Name, module.ID)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: not yet implemented", module.Name))
			continue
		}

		next, err := runRule(rule, result.Code)
		if err != nil {
			a.logger.Debug("enhancement rule failed", "module", id, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", module.Name, err))
			continue
		}

		result.Code = next
		result.Applied = append(result.Applied, fmt.Sprintf("%s: %s", module.Name, rule.Description))
		result.AppliedModules = append(result.AppliedModules, id)
		result.PerformanceEstimate += module.PerformanceGain
	}

	if level, ok := a.registry.Level(levelID); ok {
		result.Code = strings.TrimRight(result.Code, "\n") + "\n\n" + levelBlock(level)
		result.Applied = append(result.Applied, levelDescriptions(level)...)
	}

	return result
}

func runRule(rule Rule, code string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Rewrite(code)
}

func levelBlock(level domain.EnhancementLevel) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// Level %d (%s) optimizations\n", level.Number, level.Name)
	if level.EstimatedImprovement != "" {
		fmt.Fprintf(&sb, "// Estimated improvement: %s\n", level.EstimatedImprovement)
	}
	if len(level.ModuleIDs) > 0 {
		fmt.Fprintf(&sb, "// Modules: %s\n", strings.Join(level.ModuleIDs, ", "))
	}
	return sb.String()
}

func levelDescriptions(level domain.EnhancementLevel) []string {
	out := []string{fmt.Sprintf("Level %d (%s) optimizations", level.Number, level.Name)}
	if level.EstimatedImprovement != "" {
		out = append(out, "Estimated improvement: "+level.EstimatedImprovement)
	}
	return out
}
