package domain

// Level bounds for transformation requests.
const (
	MinLevel = 1
	MaxLevel = 6
	// MaxSourceBytes bounds the accepted source size (5 MiB).
	MaxSourceBytes = 5 << 20
)

// EffectAnalysis is an optional external description of the visual effect being enhanced.
type EffectAnalysis struct {
	Summary    string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Effects    []string `json:"effects,omitempty" yaml:"effects,omitempty"`
	Complexity string   `json:"complexity,omitempty" yaml:"complexity,omitempty"`
}

// TransformationRequest asks for a source text to be enhanced to a level.
type TransformationRequest struct {
	SourceCode      string          `json:"sourceCode"`
	Level           int             `json:"level"`
	RequestID       string          `json:"requestId"`
	EffectAnalysis  *EffectAnalysis `json:"effectAnalysis,omitempty"`
	SelectedModules []string        `json:"selectedModules,omitempty"`
}

// ResultSource names the path that produced a result.
type ResultSource string

const (
	SourceRemote        ResultSource = "remote"
	SourceLocalFallback ResultSource = "local_fallback"
	SourceDegraded      ResultSource = "degraded"
)

// Stats summarises a transformation.
type Stats struct {
	OriginalLines          int     `json:"originalLines"`
	NewLines               int     `json:"newLines"`
	PerformanceImprovement int     `json:"performanceImprovement"`
	ModulesApplied         int     `json:"modulesApplied"`
	SizeReduction          float64 `json:"sizeReduction"`
	FluidityImprovement    int     `json:"fluidityImprovement"`
	LinesAdded             int     `json:"linesAdded"`
	OptimizationLevel      int     `json:"optimizationLevel"`
	Error                  string  `json:"error,omitempty"`
}

// TransformationResult is what Transform hands back to callers.
type TransformationResult struct {
	RequestID     string       `json:"requestId"`
	Code          string       `json:"code"`
	Stats         Stats        `json:"stats"`
	Documentation string       `json:"documentation"`
	Warnings      []string     `json:"warnings"`
	Source        ResultSource `json:"source"`
	// Failure is set on degraded results only.
	Failure *DomainError `json:"failure,omitempty"`
}
