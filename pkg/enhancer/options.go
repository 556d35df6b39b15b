package enhancer

import (
	"log/slog"
	"time"

	"github.com/polisai/codeforge/internal/governance"
	"github.com/polisai/codeforge/pkg/enhance"
	"github.com/polisai/codeforge/pkg/syntax"
	"github.com/polisai/codeforge/pkg/telemetry"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCredentials sets the credential source used before remote calls.
func WithCredentials(source CredentialSource) Option {
	return func(s *Service) {
		s.credentials = source
	}
}

// WithCompleter sets the remote completion client.
func WithCompleter(c Completer) Option {
	return func(s *Service) {
		s.completer = c
	}
}

// WithChecker replaces the structural check applied to remote output.
func WithChecker(c syntax.Checker) Option {
	return func(s *Service) {
		if c != nil {
			s.checker = c
		}
	}
}

// WithApplier replaces the module applier used by the local simulation.
func WithApplier(a *enhance.Applier) Option {
	return func(s *Service) {
		if a != nil {
			s.applier = a
		}
	}
}

// WithCircuitBreaker guards remote calls with cb.
func WithCircuitBreaker(cb *governance.CircuitBreaker) Option {
	return func(s *Service) {
		s.breaker = cb
	}
}

// WithRateLimiter guards remote calls with rl.
func WithRateLimiter(rl *governance.RateLimiter) Option {
	return func(s *Service) {
		s.limiter = rl
	}
}

// WithAcquireRetry sets the outer credential acquisition retry.
func WithAcquireRetry(r governance.LinearRetry) Option {
	return func(s *Service) {
		s.acquire = r
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRandom sets the source of uniform values in [0, 1) used for the
// performance estimate.
func WithRandom(random func() float64) Option {
	return func(s *Service) {
		if random != nil {
			s.random = random
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
