package enhancer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/polisai/codeforge/internal/governance"
	"github.com/polisai/codeforge/pkg/domain"
	"github.com/polisai/codeforge/pkg/registry"
	"github.com/polisai/codeforge/pkg/telemetry"
)

type fakeCredentials struct {
	err       error
	calls     atomic.Int32
	refreshes atomic.Int32
}

func (f *fakeCredentials) GetValid(context.Context) (domain.Credential, error) {
	f.calls.Add(1)
	if f.err != nil {
		return domain.Credential{}, f.err
	}
	return domain.Credential{Value: "cred", SubjectID: "user-1"}, nil
}

func (f *fakeCredentials) Refresh() {
	f.refreshes.Add(1)
}

type fakeCompleter struct {
	content string
	err     error
	calls   atomic.Int32
	ctxErr  error
}

func (f *fakeCompleter) Complete(ctx context.Context, _ domain.Credential, prompt string) (string, error) {
	f.calls.Add(1)
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

var fastRetry = governance.LinearRetry{MaxAttempts: 3, Unit: time.Millisecond}

func newTestService(opts ...Option) *Service {
	reg := registry.New(registry.DefaultModules(), registry.DefaultLevels())
	base := []Option{
		WithAcquireRetry(fastRetry),
		WithRandom(func() float64 { return 0.5 }),
	}
	return NewService(reg, append(base, opts...)...)
}

func TestTransform_ForcedRemoteFailureLevel1(t *testing.T) {
	completer := &fakeCompleter{err: &domain.RemoteServiceError{StatusCode: http.StatusInternalServerError}}
	svc := newTestService(WithCredentials(&fakeCredentials{}), WithCompleter(completer))

	result, err := svc.Transform(context.Background(), domain.TransformationRequest{
		SourceCode: "var x=1;",
		Level:      1,
		RequestID:  "t1",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Code, levelHeader(1, "Standard")), result.Code)
	assert.Contains(t, result.Code, "const x=1;")
	assert.NotContains(t, result.Code, "var ")
	assert.Equal(t, 7, result.Stats.ModulesApplied)
	assert.Equal(t, domain.SourceLocalFallback, result.Source)
	assert.Equal(t, "t1", result.RequestID)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "REMOTE_FAILED")
	assert.EqualValues(t, 1, completer.calls.Load())
}

func TestTransform_WithoutRemoteUsesSimulation(t *testing.T) {
	svc := newTestService()

	result, err := svc.Transform(context.Background(), domain.TransformationRequest{
		SourceCode: "var a = 1;\nvar b = 2;\n",
		Level:      3,
		RequestID:  "r-3",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Code, "// CodeForge Level 3 (Premium)"))
	assert.Contains(t, result.Code, "Professional optimizations")
	assert.Contains(t, result.Code, "Premium optimizations")
	assert.Equal(t, 23, result.Stats.ModulesApplied)
	assert.Equal(t, 3, result.Stats.OptimizationLevel)
	assert.Equal(t, result.Stats.NewLines-result.Stats.OriginalLines, result.Stats.LinesAdded)
	assert.Contains(t, result.Warnings[0], "REMOTE_UNAVAILABLE")
}

func TestTransform_PerformanceWithinLevelBand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		level := rapid.IntRange(domain.MinLevel, domain.MaxLevel).Draw(t, "level")
		r := rapid.Float64Range(0, 0.999999).Draw(t, "random")
		svc := newTestService(WithRandom(func() float64 { return r }))

		result, err := svc.Transform(context.Background(), domain.TransformationRequest{
			SourceCode: "var v = Math.sin(1);",
			Level:      level,
			RequestID:  "band",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		b := bandFor(level)
		perf := result.Stats.PerformanceImprovement
		if float64(perf) < b.lo || float64(perf) > b.hi {
			t.Fatalf("level %d: performance %d outside [%v,%v]", level, perf, b.lo, b.hi)
		}
		if want := int(math.Round(float64(perf) * 0.8)); result.Stats.FluidityImprovement != want {
			t.Fatalf("fluidity %d, want %d", result.Stats.FluidityImprovement, want)
		}
	})
}

func TestTransform_ValidationErrors(t *testing.T) {
	cases := map[string]domain.TransformationRequest{
		"empty source":      {SourceCode: "", Level: 1, RequestID: "v"},
		"blank source":      {SourceCode: " \n\t", Level: 1, RequestID: "v"},
		"level too low":     {SourceCode: "x", Level: 0, RequestID: "v"},
		"level too high":    {SourceCode: "x", Level: 7, RequestID: "v"},
		"missing requestId": {SourceCode: "x", Level: 1, RequestID: " "},
		"invalid utf8":      {SourceCode: "x\xff", Level: 1, RequestID: "v"},
		"oversized":         {SourceCode: strings.Repeat("a", domain.MaxSourceBytes+1), Level: 1, RequestID: "v"},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			creds := &fakeCredentials{}
			svc := newTestService(WithCredentials(creds), WithCompleter(&fakeCompleter{content: "x"}))

			result, err := svc.Transform(context.Background(), req)
			assert.Nil(t, result)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.Zero(t, creds.calls.Load())
		})
	}
}

func TestTransform_RemoteSuccess(t *testing.T) {
	completer := &fakeCompleter{content: "```javascript\nconst y = 2;\n```"}
	svc := newTestService(WithCredentials(&fakeCredentials{}), WithCompleter(completer))

	result, err := svc.Transform(context.Background(), domain.TransformationRequest{
		SourceCode: "var y = 2;",
		Level:      2,
		RequestID:  "ok",
		EffectAnalysis: &domain.EffectAnalysis{
			Summary: "Starfield parallax",
			Effects: []string{"twinkle"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SourceRemote, result.Source)
	assert.Equal(t, "const y = 2;\n", result.Code)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 13, result.Stats.ModulesApplied)
	assert.Contains(t, result.Documentation, "Starfield parallax")
	assert.Contains(t, result.Documentation, "- twinkle")
}

func TestTransform_UnauthorizedRefreshesCredential(t *testing.T) {
	creds := &fakeCredentials{}
	completer := &fakeCompleter{err: &domain.RemoteServiceError{StatusCode: http.StatusUnauthorized}}
	metrics := telemetry.NewMetrics()
	svc := newTestService(WithCredentials(creds), WithCompleter(completer), WithMetrics(metrics))

	result, err := svc.Transform(context.Background(), domain.TransformationRequest{SourceCode: "var q;", Level: 1, RequestID: "401"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, creds.refreshes.Load())
	assert.Equal(t, domain.SourceLocalFallback, result.Source)
	assert.Contains(t, result.Warnings[0], "REMOTE_UNAUTHORIZED")

	count, err := testutil.GatherAndCount(metrics.Registry(), "codeforge_local_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTransform_InvalidRemoteContentFallsBack(t *testing.T) {
	completer := &fakeCompleter{content: "function broken( {"}
	svc := newTestService(WithCredentials(&fakeCredentials{}), WithCompleter(completer))

	result, err := svc.Transform(context.Background(), domain.TransformationRequest{SourceCode: "var z = 3;", Level: 1, RequestID: "bad"})
	require.NoError(t, err)

	assert.Equal(t, domain.SourceLocalFallback, result.Source)
	assert.Contains(t, result.Code, "const z = 3;")
	assert.Contains(t, result.Warnings[0], "REMOTE_CONTENT_INVALID")
}

func TestTransform_CredentialFailureRetriesThenFallsBack(t *testing.T) {
	creds := &fakeCredentials{err: fmt.Errorf("%w: account service down", domain.ErrCredential)}
	completer := &fakeCompleter{content: "const a = 1;"}
	svc := newTestService(WithCredentials(creds), WithCompleter(completer))

	result, err := svc.Transform(context.Background(), domain.TransformationRequest{SourceCode: "var a = 1;", Level: 1, RequestID: "cred"})
	require.NoError(t, err)

	assert.EqualValues(t, 3, creds.calls.Load())
	assert.Zero(t, completer.calls.Load())
	assert.Equal(t, domain.SourceLocalFallback, result.Source)
	assert.Contains(t, result.Warnings[0], "CREDENTIAL_UNAVAILABLE")
}

func TestTransform_DegradedWhenFallbackFails(t *testing.T) {
	for name, simulate := range map[string]func(domain.TransformationRequest, domain.EnhancementLevel) (simulation, error){
		"error": func(domain.TransformationRequest, domain.EnhancementLevel) (simulation, error) {
			return simulation{}, errors.New("rewrite engine unavailable")
		},
		"panic": func(domain.TransformationRequest, domain.EnhancementLevel) (simulation, error) {
			panic("rewrite engine unavailable")
		},
	} {
		t.Run(name, func(t *testing.T) {
			svc := newTestService()
			svc.simulate = simulate

			source := "var keep = true;\n"
			result, err := svc.Transform(context.Background(), domain.TransformationRequest{SourceCode: source, Level: 2, RequestID: "deg"})
			require.NoError(t, err)

			assert.Equal(t, domain.SourceDegraded, result.Source)
			assert.Equal(t, source, result.Code)
			assert.Contains(t, result.Stats.Error, "rewrite engine unavailable")
			assert.Contains(t, result.Documentation, "no completion client configured")
			assert.Contains(t, result.Documentation, "rewrite engine unavailable")
			assert.Contains(t, result.Documentation, "FALLBACK_FAILED")

			require.NotNil(t, result.Failure)
			assert.Equal(t, "FALLBACK_FAILED", domain.ErrorCode(result.Failure))
			assert.ErrorIs(t, result.Failure, domain.ErrFallbackExhausted)
			assert.Equal(t, "deg", result.Failure.Details["requestId"])
			assert.Equal(t, "REMOTE_UNAVAILABLE", result.Failure.Details["remoteErrorCode"])
		})
	}
}

func TestTransform_OpenCircuitSkipsRemote(t *testing.T) {
	completer := &fakeCompleter{err: &domain.RemoteServiceError{StatusCode: http.StatusBadGateway}}
	breaker := governance.NewCircuitBreaker(governance.CircuitBreakerConfig{MaxFailures: 1, OpenTimeout: time.Hour})
	svc := newTestService(WithCredentials(&fakeCredentials{}), WithCompleter(completer), WithCircuitBreaker(breaker))

	req := domain.TransformationRequest{SourceCode: "var c;", Level: 1, RequestID: "cb"}
	_, err := svc.Transform(context.Background(), req)
	require.NoError(t, err)

	result, err := svc.Transform(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 1, completer.calls.Load())
	assert.Contains(t, result.Warnings[0], "REMOTE_UNAVAILABLE")
}

func TestTransform_UnauthorizedDoesNotOpenCircuit(t *testing.T) {
	creds := &fakeCredentials{}
	completer := &fakeCompleter{err: &domain.RemoteServiceError{StatusCode: http.StatusUnauthorized}}
	breaker := governance.NewCircuitBreaker(governance.CircuitBreakerConfig{MaxFailures: 1, OpenTimeout: time.Hour})
	svc := newTestService(WithCredentials(creds), WithCompleter(completer), WithCircuitBreaker(breaker))

	req := domain.TransformationRequest{SourceCode: "var u;", Level: 1, RequestID: "401-cb"}
	for range 3 {
		_, err := svc.Transform(context.Background(), req)
		require.NoError(t, err)
	}

	assert.EqualValues(t, 3, completer.calls.Load())
	assert.EqualValues(t, 3, creds.refreshes.Load())
	assert.Equal(t, governance.StateClosed, breaker.State())
}

func TestTransform_RateLimitedSkipsRemote(t *testing.T) {
	completer := &fakeCompleter{content: "const r = 1;"}
	limiter := governance.NewRateLimiter(governance.RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	svc := newTestService(WithCredentials(&fakeCredentials{}), WithCompleter(completer), WithRateLimiter(limiter))

	req := domain.TransformationRequest{SourceCode: "var r = 1;", Level: 1, RequestID: "rl"}
	first, err := svc.Transform(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Transform(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceRemote, first.Source)
	assert.Equal(t, domain.SourceLocalFallback, second.Source)
	assert.EqualValues(t, 1, completer.calls.Load())
}

func TestTransform_SelectedModulesAboveLevelThree(t *testing.T) {
	svc := newTestService()

	result, err := svc.Transform(context.Background(), domain.TransformationRequest{
		SourceCode:      "var n = 1;",
		Level:           5,
		RequestID:       "sel",
		SelectedModules: []string{"accessibility", "responsive", "missing", "ai-prediction"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Code, "// CodeForge Level 5 (Premium)"))
	assert.Equal(t, 2, result.Stats.ModulesApplied)
	assert.Contains(t, result.Warnings, "Responsive Canvas: no canvas element found")
	assert.Contains(t, result.Code, "prefers-reduced-motion")

	b := bandFor(5)
	assert.GreaterOrEqual(t, float64(result.Stats.PerformanceImprovement), b.lo)
	assert.LessOrEqual(t, float64(result.Stats.PerformanceImprovement), b.hi)
}

func TestTransform_IgnoresCallerCancellation(t *testing.T) {
	completer := &fakeCompleter{content: "const k = 1;"}
	svc := newTestService(WithCredentials(&fakeCredentials{}), WithCompleter(completer))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Transform(ctx, domain.TransformationRequest{SourceCode: "var k = 1;", Level: 1, RequestID: "c"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRemote, result.Source)
	assert.NoError(t, completer.ctxErr)
}

func TestAnalyzeAndSuggest(t *testing.T) {
	svc := newTestService()
	code := `const ctx = canvas.getContext('2d');
const particles = [];
function loop() {
  for (let i = 0; i < particles.length; i++) {
    ctx.rotate(Math.sin(i));
  }
  requestAnimationFrame(loop);
}`

	result := svc.AnalyzeAndSuggest(code, 1)

	require.NotEmpty(t, result.Suggestions)
	assert.LessOrEqual(t, len(result.Suggestions), 10)
	for i := 1; i < len(result.Suggestions); i++ {
		assert.GreaterOrEqual(t, result.Suggestions[i-1].Priority.Rank(), result.Suggestions[i].Priority.Rank())
	}
	assert.True(t, result.Profile.Has2DCanvas)
	assert.NotEmpty(t, result.RecommendedLevel)
}

func TestAnalyzeAndSuggest_EmptyRegistry(t *testing.T) {
	svc := NewService(registry.New(nil, registry.DefaultLevels()))

	result := svc.AnalyzeAndSuggest("canvas", 2)
	assert.Empty(t, result.Suggestions)
	assert.Zero(t, result.TotalEstimatedGain)
	assert.Equal(t, "level_3_enhanced", result.RecommendedLevel)
}

func TestAnalyzeAndSuggest_TiesFollowModuleFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
zeta: {name: Zeta, impact: high, complexity: low}
alpha: {name: Alpha, impact: high, complexity: low}
`), 0o600))
	svc := NewService(registry.Load(registry.Files{ModulesFile: path}, nil))

	result := svc.AnalyzeAndSuggest("const x = 1;", 1)

	require.Len(t, result.Suggestions, 2)
	assert.Equal(t, result.Suggestions[0].Priority, result.Suggestions[1].Priority)
	assert.Equal(t, "zeta", result.Suggestions[0].ModuleID)
	assert.Equal(t, "alpha", result.Suggestions[1].ModuleID)
}

func TestLevelFor(t *testing.T) {
	svc := newTestService()

	assert.Equal(t, "level_2_professional", svc.levelFor(2).ID)

	six := svc.levelFor(6)
	assert.Equal(t, 6, six.Number)
	assert.Equal(t, "Premium", six.Name)
	assert.Empty(t, six.ID)
	assert.NotEmpty(t, six.Instruction)
}
