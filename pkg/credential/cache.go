// Package credential caches the short-lived credential used to call the remote
// completion service.
//
// A single Cache instance is shared by every request. Concurrent misses are
// coalesced into one fetch whose outcome (credential, fallback or error) is
// shared by all waiting callers.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/polisai/codeforge/internal/governance"
	"github.com/polisai/codeforge/pkg/domain"
	"github.com/polisai/codeforge/pkg/telemetry"
)

const flightKey = "credential"

var errBudgetExhausted = errors.New("fetch attempt budget exhausted")

// Fetcher obtains a fresh credential from the credential source.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.Credential, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (domain.Credential, error)

// Fetch calls f(ctx).
func (f FetcherFunc) Fetch(ctx context.Context) (domain.Credential, error) {
	return f(ctx)
}

// Config controls cache freshness and fetch retries.
type Config struct {
	// TTL is the credential lifetime when the source gives none, and the window
	// after which a spent attempt budget is restored.
	TTL time.Duration
	// FetchTimeout bounds each network attempt.
	FetchTimeout time.Duration
	// MaxAttempts is the fetch budget per attempt sequence.
	MaxAttempts int
	// BackoffUnit is the linear backoff step between attempts.
	BackoffUnit time.Duration
	// SweepInterval is how often Run discards an expired credential.
	SweepInterval time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		TTL:           5 * time.Minute,
		FetchTimeout:  15 * time.Second,
		MaxAttempts:   3,
		BackoffUnit:   time.Second,
		SweepInterval: 60 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BackoffUnit < 0 {
		c.BackoffUnit = d.BackoffUnit
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	return c
}

// Option customises a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records cache activity into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache holds at most one credential and coordinates its refetching.
type Cache struct {
	fetcher Fetcher
	config  Config
	logger  *slog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
	flight  singleflight.Group

	mu            sync.Mutex
	current       *domain.Credential
	lastKnown     *domain.Credential
	attempts      int
	sequenceStart time.Time
}

// NewCache creates a cache over fetcher.
func NewCache(fetcher Fetcher, config Config, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		config:  config.withDefaults(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetValid returns a usable credential.
//
// A cached credential that has not expired is returned without network access.
// Otherwise the caller joins the single in-flight fetch (starting it if needed)
// and receives its shared outcome. The fetch is not tied to the caller's
// cancellation; it is bounded by the per-attempt timeout and backoff budget.
func (c *Cache) GetValid(ctx context.Context) (domain.Credential, error) {
	if cred, ok := c.cached(); ok {
		c.metrics.RecordCredentialHit()
		return cred, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	v, err, shared := c.flight.Do(flightKey, func() (any, error) {
		return c.fetch(fetchCtx)
	})
	if shared {
		c.logger.Debug("joined in-flight credential fetch")
	}
	if err != nil {
		return domain.Credential{}, err
	}
	return v.(domain.Credential), nil
}

// Refresh discards the cached credential and resets the attempt budget, for
// example after the remote service rejected the credential.
func (c *Cache) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	c.attempts = 0
	c.sequenceStart = time.Time{}
	c.metrics.RecordCredentialRefresh()
	c.logger.Info("credential invalidated")
}

// Sweep discards the cached credential once it is past its expiry, so the next
// GetValid refetches instead of serving a stale value. It reports whether a
// credential was discarded.
func (c *Cache) Sweep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.ValidAt(c.now()) {
		return false
	}
	c.logger.Debug("discarding expired credential", "subject_id", c.current.SubjectID,
		"expired_at", c.current.ExpiresAt)
	c.current = nil
	c.metrics.RecordCredentialSweep()
	return true
}

// Run sweeps every SweepInterval until ctx ends.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

func (c *Cache) cached() (domain.Credential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.ValidAt(c.now()) {
		return *c.current, true
	}
	return domain.Credential{}, false
}

// fetch runs one attempt sequence and applies the fallback ladder. Only one
// fetch runs at a time.
func (c *Cache) fetch(ctx context.Context) (domain.Credential, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "credential.fetch")
	defer span.End()

	// A flight that finished just before this one started may have refreshed the slot.
	if cred, ok := c.cached(); ok {
		return cred, nil
	}

	c.mu.Lock()
	now := c.now()
	if !c.sequenceStart.IsZero() && now.Sub(c.sequenceStart) > c.config.TTL {
		c.attempts = 0
	}
	if c.attempts == 0 {
		c.sequenceStart = now
	}
	c.mu.Unlock()

	lastErr := errBudgetExhausted
	for {
		attempt, ok := c.takeAttempt()
		if !ok {
			break
		}

		cred, err := c.fetchOnce(ctx)
		if err == nil {
			c.store(cred)
			c.metrics.RecordCredentialFetch("success")
			span.SetAttributes(attribute.Int("credential.attempt", attempt))
			c.logger.Debug("credential fetched", "attempt", attempt, "subject_id", cred.SubjectID)
			return cred, nil
		}

		lastErr = err
		if errors.Is(err, context.DeadlineExceeded) {
			c.metrics.RecordCredentialFetch("timeout")
		} else {
			c.metrics.RecordCredentialFetch("failure")
		}
		c.logger.Warn("credential fetch attempt failed", "attempt", attempt,
			"max_attempts", c.config.MaxAttempts, "error", err)

		if attempt < c.config.MaxAttempts {
			backoff := time.Duration(attempt) * c.config.BackoffUnit
			if err := governance.SleepContext(ctx, backoff); err != nil {
				lastErr = err
				break
			}
		}
	}

	cred, err := c.fallback(lastErr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "credential unavailable")
	}
	return cred, err
}

func (c *Cache) takeAttempt() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempts >= c.config.MaxAttempts {
		return 0, false
	}
	c.attempts++
	return c.attempts, true
}

// fetchOnce performs one bounded attempt. The attempt is abandoned when the
// timeout fires even if the fetcher ignores its context.
func (c *Cache) fetchOnce(ctx context.Context) (domain.Credential, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	type result struct {
		cred domain.Credential
		err  error
	}
	done := make(chan result, 1)
	go func() {
		cred, err := c.fetcher.Fetch(attemptCtx)
		done <- result{cred, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-attemptCtx.Done():
		return domain.Credential{}, fmt.Errorf("credential fetch timed out after %s: %w",
			c.config.FetchTimeout, attemptCtx.Err())
	}
	if res.err != nil {
		return domain.Credential{}, res.err
	}
	return c.normalize(res.cred)
}

func (c *Cache) normalize(cred domain.Credential) (domain.Credential, error) {
	if cred.Value == "" {
		return domain.Credential{}, errors.New("credential source returned an empty value")
	}
	if cred.FetchedAt.IsZero() {
		cred.FetchedAt = c.now()
	}
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = cred.FetchedAt.Add(c.config.TTL)
	}
	if !cred.ExpiresAt.After(cred.FetchedAt) {
		return domain.Credential{}, fmt.Errorf("credential expires at %s, not after fetch time %s",
			cred.ExpiresAt.Format(time.RFC3339), cred.FetchedAt.Format(time.RFC3339))
	}
	return cred, nil
}

func (c *Cache) store(cred domain.Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &cred
	c.lastKnown = &cred
	c.attempts = 0
	c.sequenceStart = time.Time{}
}

// fallback serves, in order: the cached credential even if expired, the last
// credential ever obtained, or a CredentialError.
func (c *Cache) fallback(cause error) (domain.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.metrics.RecordCredentialFallback("stale_cached")
		c.logger.Warn("serving stale cached credential", "subject_id", c.current.SubjectID,
			"expired_at", c.current.ExpiresAt, "error", cause)
		return *c.current, nil
	}
	if c.lastKnown != nil {
		c.metrics.RecordCredentialFallback("last_known")
		c.logger.Warn("serving last known credential", "subject_id", c.lastKnown.SubjectID, "error", cause)
		return *c.lastKnown, nil
	}

	c.metrics.RecordCredentialFallback("exhausted")
	return domain.Credential{}, fmt.Errorf("%w: %w", domain.ErrCredential, cause)
}
