package enhancer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/polisai/codeforge/internal/governance"
	"github.com/polisai/codeforge/pkg/analysis"
	"github.com/polisai/codeforge/pkg/completion"
	"github.com/polisai/codeforge/pkg/domain"
	"github.com/polisai/codeforge/pkg/enhance"
	"github.com/polisai/codeforge/pkg/registry"
	"github.com/polisai/codeforge/pkg/syntax"
	"github.com/polisai/codeforge/pkg/telemetry"
)

// Transformation states, used for logs, spans and metric labels.
const (
	stateValidating    = "validating"
	stateCredAcquire   = "cred_acquire"
	stateRemoteCall    = "remote_call"
	stateLocalFallback = "local_fallback"
)

// CredentialSource hands out credentials for the completion endpoint.
type CredentialSource interface {
	GetValid(ctx context.Context) (domain.Credential, error)
	Refresh()
}

// Completer sends a prompt to the completion endpoint.
type Completer interface {
	Complete(ctx context.Context, credential domain.Credential, prompt string) (string, error)
}

// Service is the transformation orchestrator. It is safe for concurrent use.
type Service struct {
	registry    *registry.Registry
	credentials CredentialSource
	completer   Completer
	checker     syntax.Checker
	applier     *enhance.Applier
	breaker     *governance.CircuitBreaker
	limiter     *governance.RateLimiter
	acquire     governance.LinearRetry
	metrics     *telemetry.Metrics
	logger      *slog.Logger
	random      func() float64
	now         func() time.Time

	// simulate is the local fallback; replaced in tests.
	simulate func(req domain.TransformationRequest, level domain.EnhancementLevel) (simulation, error)
}

// NewService builds a Service over reg. Without WithCredentials or
// WithCompleter every transformation is served by the local simulation.
func NewService(reg *registry.Registry, opts ...Option) *Service {
	if reg == nil {
		reg = registry.New(registry.DefaultModules(), registry.DefaultLevels())
	}
	s := &Service{
		registry: reg,
		checker:  syntax.NewJavaScriptChecker(),
		acquire:  governance.LinearRetry{MaxAttempts: 3, Unit: time.Second},
		logger:   slog.Default(),
		random:   rand.Float64,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.applier == nil {
		s.applier = enhance.NewApplier(reg, enhance.WithLogger(s.logger))
	}
	s.simulate = s.simulateLocally
	return s
}

// NewRequestID returns a fresh request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// Transform enhances req.SourceCode to req.Level. Only validation failures are
// returned as errors; every other failure yields a local or degraded result.
// Cancellation of ctx is ignored once the request has been accepted.
func (s *Service) Transform(ctx context.Context, req domain.TransformationRequest) (*domain.TransformationResult, error) {
	start := s.now()
	ctx = context.WithoutCancel(ctx)

	if err := Validate(req); err != nil {
		s.logger.Warn("transformation rejected",
			"request_id", req.RequestID,
			"state", stateValidating,
			"error", err,
		)
		telemetry.RecordTransform(ctx, telemetry.TransformMetrics{Level: req.Level, ValidationFailed: true})
		return nil, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "enhancer.Transform", trace.WithAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.Int("transform.level", req.Level),
	))
	defer span.End()

	level := s.levelFor(req.Level)
	logger := s.logger.With("request_id", req.RequestID, "level", req.Level)

	out, tries, remoteErr := s.remote(ctx, req, level, logger)
	if remoteErr == nil {
		result := s.finish(req, level, out.code, domain.SourceRemote, s.knownModules(req.SelectedModules), nil)
		s.record(ctx, span, req, result, "", tries, start)
		logger.Info("transformation complete", "source", result.Source)
		return result, nil
	}

	failedState := stateRemoteCall
	if errors.Is(remoteErr, domain.ErrCredential) {
		failedState = stateCredAcquire
	}
	telemetry.RecordFallback(span, failedState, remoteErr)
	s.metrics.RecordLocalFallback(failedState)
	logger.Warn("remote transformation failed, using local simulation",
		"state", failedState,
		"error", remoteErr,
	)

	sim, fallbackErr := s.runSimulation(req, level)
	if fallbackErr != nil {
		span.RecordError(fallbackErr)
		span.SetStatus(codes.Error, "local fallback failed")
		logger.Error("local simulation failed", "state", stateLocalFallback, "error", fallbackErr)
		result := s.degraded(req, remoteErr, fallbackErr)
		s.record(ctx, span, req, result, failedState, tries, start)
		return result, nil
	}

	warnings := append([]string{remoteWarning(remoteErr)}, sim.warnings...)
	result := s.finish(req, level, sim.code, domain.SourceLocalFallback, sim.appliedModules, warnings)
	s.record(ctx, span, req, result, failedState, tries, start)
	logger.Info("transformation complete", "source", result.Source, "warnings", len(result.Warnings))
	return result, nil
}

// AnalyzeAndSuggest ranks the registry modules against code. A malformed
// registry yields an empty suggestion set.
func (s *Service) AnalyzeAndSuggest(code string, currentLevel int) (result domain.Analysis) {
	profile := analysis.Extract(code)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analysis failed", "error", fmt.Sprint(r))
			result = domain.Analysis{
				RecommendedLevel: analysis.RecommendLevel(nil, currentLevel),
				Profile:          profile,
			}
		}
	}()
	return analysis.Rank(s.registry.Modules(), profile, currentLevel)
}

type remoteOutput struct {
	code string
}

func (s *Service) remote(ctx context.Context, req domain.TransformationRequest, level domain.EnhancementLevel, logger *slog.Logger) (remoteOutput, int, error) {
	if s.credentials == nil || s.completer == nil {
		return remoteOutput{}, 0, fmt.Errorf("%w: no completion client configured", domain.ErrRemoteUnavailable)
	}

	credCtx, credSpan := telemetry.Tracer().Start(ctx, "enhancer.acquire_credential")
	var credential domain.Credential
	tries := 0
	err := s.acquire.Do(credCtx, func(ctx context.Context, attempt int) error {
		tries = attempt
		c, err := s.credentials.GetValid(ctx)
		if err != nil {
			logger.Warn("credential acquisition failed", "attempt", attempt, "error", err)
			return err
		}
		credential = c
		return nil
	})
	if err != nil {
		credSpan.RecordError(err)
		credSpan.End()
		if !errors.Is(err, domain.ErrCredential) {
			err = fmt.Errorf("%w: %w", domain.ErrCredential, err)
		}
		return remoteOutput{}, tries, err
	}
	credSpan.SetAttributes(attribute.Int("credential.attempts", tries))
	credSpan.End()

	if !s.limiter.Allow() {
		s.metrics.RecordRemoteRequest("rate_limited", 0)
		return remoteOutput{}, tries, fmt.Errorf("%w: rate limit exceeded", domain.ErrRemoteUnavailable)
	}
	if err := s.breaker.Allow(); err != nil {
		s.metrics.RecordRemoteRequest("circuit_open", 0)
		return remoteOutput{}, tries, fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
	}

	callCtx, callSpan := telemetry.Tracer().Start(ctx, "enhancer.remote_call")
	defer callSpan.End()

	callStart := s.now()
	content, err := s.completer.Complete(callCtx, credential, completion.BuildPrompt(level, req.Level, req.SourceCode))
	elapsed := s.now().Sub(callStart).Seconds()
	// A rejected credential still means the endpoint answered.
	if errors.Is(err, domain.ErrUnauthorized) {
		s.breaker.Record(nil)
	} else {
		s.breaker.Record(err)
	}
	if err != nil {
		callSpan.RecordError(err)
		outcome := "error"
		if errors.Is(err, domain.ErrUnauthorized) {
			outcome = "unauthorized"
			s.credentials.Refresh()
			logger.Warn("completion endpoint rejected credential, cache invalidated")
		}
		s.metrics.RecordRemoteRequest(outcome, elapsed)
		return remoteOutput{}, tries, err
	}

	code := completion.StripCodeFence(content)
	if err := s.checker.Check(callCtx, code); err != nil {
		callSpan.RecordError(err)
		s.metrics.RecordRemoteRequest("invalid_content", elapsed)
		if !errors.Is(err, domain.ErrRemoteContentInvalid) {
			err = fmt.Errorf("%w: %w", domain.ErrRemoteContentInvalid, err)
		}
		return remoteOutput{}, tries, err
	}

	s.metrics.RecordRemoteRequest("ok", elapsed)
	return remoteOutput{code: code}, tries, nil
}

func (s *Service) runSimulation(req domain.TransformationRequest, level domain.EnhancementLevel) (sim simulation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrFallbackExhausted, r)
		}
	}()
	sim, err = s.simulate(req, level)
	if err != nil && !errors.Is(err, domain.ErrFallbackExhausted) {
		err = fmt.Errorf("%w: %w", domain.ErrFallbackExhausted, err)
	}
	return sim, err
}

// levelFor resolves a level number to a registry level. Numbers without an
// entry borrow the nearest lower level's modules and instruction.
func (s *Service) levelFor(n int) domain.EnhancementLevel {
	if level, ok := s.registry.LevelByNumber(n); ok {
		return level
	}
	var best domain.EnhancementLevel
	for _, level := range s.registry.Levels() {
		if level.Number <= n && level.Number >= best.Number {
			best = level
		}
	}
	if best.ID == "" {
		for _, level := range registry.DefaultLevels() {
			if level.Number <= n {
				best = level
			}
		}
	}
	best.Number = n
	if n > 3 {
		best.ID = ""
	}
	return best
}

func (s *Service) knownModules(ids []string) []string {
	var known []string
	for _, id := range ids {
		if _, ok := s.registry.Module(id); ok {
			known = append(known, id)
		}
	}
	return known
}

func (s *Service) record(ctx context.Context, span trace.Span, req domain.TransformationRequest, result *domain.TransformationResult, fallbackState string, tries int, start time.Time) {
	span.SetAttributes(
		attribute.String("transform.source", string(result.Source)),
		attribute.Int("transform.warnings", len(result.Warnings)),
	)
	telemetry.RecordTransform(ctx, telemetry.TransformMetrics{
		Level:           req.Level,
		Source:          string(result.Source),
		FallbackReason:  fallbackState,
		Warnings:        len(result.Warnings),
		Duration:        s.now().Sub(start),
		CredentialTries: tries,
		ModulesApplied:  result.Stats.ModulesApplied,
	})
}

func remoteWarning(err error) string {
	return fmt.Sprintf("remote transformation unavailable (%s); local simulation applied", domain.ErrorCode(err))
}
