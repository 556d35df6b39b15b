package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/polisai/codeforge/internal/governance"
	"github.com/polisai/codeforge/pkg/completion"
	"github.com/polisai/codeforge/pkg/config"
	"github.com/polisai/codeforge/pkg/credential"
	"github.com/polisai/codeforge/pkg/enhancer"
	"github.com/polisai/codeforge/pkg/logging"
	"github.com/polisai/codeforge/pkg/registry"
	"github.com/polisai/codeforge/pkg/syntax"
	"github.com/polisai/codeforge/pkg/telemetry"
)

// app is the wired process: one registry, one credential cache and one
// service shared by every request of the invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *enhancer.Service
	metrics *telemetry.Metrics

	closers []func(context.Context) error
}

func newApp(ctx context.Context, flags *globalFlags, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}
	if flags.Pretty {
		cfg.Logging.Pretty = true
	}
	if flags.MetricsAddr != "" {
		cfg.Telemetry.MetricsAddress = flags.MetricsAddr
	}

	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
		Output: stderr,
	})
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, metrics: telemetry.NewMetrics()}

	remoteEnabled := cfg.Credential.Endpoint != "" && cfg.Credential.SessionToken != ""
	telemetryCfg := telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ModulesSource:  cfg.Registry.ModulesFile,
		LevelsSource:   cfg.Registry.LevelsFile,
		SyntaxBackend:  syntax.Backend(),
	}
	if remoteEnabled {
		telemetryCfg.RemoteModel = cfg.Remote.Model
	}
	shutdown, err := telemetry.SetupProvider(ctx, telemetryCfg)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		a.closers = append(a.closers, shutdown)
	}

	if cfg.Telemetry.MetricsAddress != "" {
		if err := a.serveMetrics(cfg.Telemetry.MetricsAddress); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}

	reg := registry.Load(registry.Files{
		ModulesFile: cfg.Registry.ModulesFile,
		LevelsFile:  cfg.Registry.LevelsFile,
	}, logger)
	logger.Info("structural check ready", "backend", syntax.Backend())

	opts := []enhancer.Option{
		enhancer.WithLogger(logger),
		enhancer.WithMetrics(a.metrics),
		enhancer.WithAcquireRetry(governance.LinearRetry{
			MaxAttempts: cfg.Enhancer.AcquireAttempts,
			Unit:        cfg.Enhancer.AcquireBackoff,
		}),
		enhancer.WithCircuitBreaker(governance.NewCircuitBreaker(governance.CircuitBreakerConfig{
			MaxFailures: cfg.Remote.Breaker.MaxFailures,
			OpenTimeout: cfg.Remote.Breaker.OpenTimeout,
		})),
		enhancer.WithRateLimiter(governance.NewRateLimiter(governance.RateLimiterConfig{
			RequestsPerSecond: cfg.Remote.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.Remote.RateLimit.Burst,
		})),
	}

	if remoteEnabled {
		fetcher := credential.NewHTTPFetcher(credential.HTTPFetcherConfig{
			Endpoint:      cfg.Credential.Endpoint,
			SessionHeader: cfg.Credential.SessionHeader,
			SessionToken:  cfg.Credential.SessionToken,
			TTL:           cfg.Credential.TTL,
		}, nil)
		cache := credential.NewCache(fetcher, credential.Config{
			TTL:           cfg.Credential.TTL,
			FetchTimeout:  cfg.Credential.FetchTimeout,
			MaxAttempts:   cfg.Credential.MaxAttempts,
			BackoffUnit:   cfg.Credential.BackoffUnit,
			SweepInterval: cfg.Credential.SweepInterval,
		}, credential.WithLogger(logger), credential.WithMetrics(a.metrics))

		sweepCtx, stopSweep := context.WithCancel(context.WithoutCancel(ctx))
		go cache.Run(sweepCtx)
		a.closers = append(a.closers, func(context.Context) error {
			stopSweep()
			return nil
		})

		client := completion.NewClient(completion.Config{
			Endpoint:    cfg.Remote.Endpoint,
			Model:       cfg.Remote.Model,
			MaxTokens:   cfg.Remote.MaxTokens,
			Temperature: cfg.Remote.Temperature,
			Timeout:     cfg.Remote.Timeout,
		}, nil, logger)

		opts = append(opts, enhancer.WithCredentials(cache), enhancer.WithCompleter(client))
	} else {
		logger.Info("no credential endpoint or session token configured, using local enhancement only")
	}

	a.service = enhancer.NewService(reg, opts...)
	return a, nil
}

func (a *app) serveMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.logger.Info("metrics listening", "addr", listener.Addr().String())

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	a.closers = append(a.closers, server.Shutdown)
	return nil
}

// Close releases background resources in reverse order.
func (a *app) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
