// Package bootstrap wires the service graph shared by the HTTP server and the
// Lambda entrypoint.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"tryon/internal/adapter/repo"
	"tryon/internal/auth"
	"tryon/internal/chat"
	"tryon/internal/generation"
	"tryon/internal/http/handlers"
	"tryon/internal/http/httpapi"
	"tryon/internal/imagesource"
	"tryon/internal/infra"
	"tryon/internal/infra/geoip"
	"tryon/internal/observability/metrics"
	"tryon/internal/observability/tracing"
	"tryon/internal/providers/gemini"
	"tryon/internal/quota"
	"tryon/internal/storage"
	"tryon/internal/tryon"
)

// Service is the assembled application. Close releases everything Build
// opened, in reverse order.
type Service struct {
	Router *chi.Mux

	closers []func(context.Context) error
}

// Build connects to the database, storage and model provider described by
// cfg and returns the routed application.
func Build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Service, error) {
	svc := &Service{}
	if err := svc.build(ctx, cfg, logger); err != nil {
		_ = svc.Close(context.Background())
		return nil, err
	}
	return svc, nil
}

func (svc *Service) build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.OTLPEndpoint, cfg.TraceSampleRatio, logger)
	if err != nil {
		return err
	}
	svc.onClose(shutdownTracing)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	svc.onClose(func(context.Context) error { pool.Close(); return nil })
	subscriptions := repo.NewSubscriptionRepository(infra.NewSQLRunner(pool, logger.With().Str("component", "sql").Logger()))

	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		svc.onClose(func(context.Context) error { return c.Close() })
	}

	authenticator, err := auth.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	model, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("gemini client: %w", err)
	}

	countries, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		// Locale detection still works from headers.
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	svc.onClose(func(context.Context) error { return countries.Close() })

	ledger := quota.NewLedger(subscriptions, logger, quota.WithMetrics(m))
	resolver := imagesource.NewResolver(
		store,
		imagesource.Collections(cfg.WardrobeBucket, cfg.ProductBucket, cfg.AvatarBucket),
		m,
		logger,
	)
	generator := generation.NewClient(model, logger,
		generation.WithAttemptTimeout(cfg.GenerationAttemptTimeout),
		generation.WithMetrics(m),
	)

	app := &handlers.App{
		TryOnSvc: tryon.NewService(authenticator, ledger, resolver, generator, m, logger),
		ChatSvc:  chat.NewService(model, logger),
		QuotaSvc: ledger,
		Auth:     authenticator,
		DB:       pool,
		Logger:   logger,
	}
	svc.Router = httpapi.NewRouter(app, httpapi.Options{
		Logger:           logger,
		Metrics:          m,
		CORSOrigins:      cfg.CORSOrigins,
		RateLimitPerMin:  cfg.RateLimitPerMin,
		TrustedProxyHops: cfg.TrustedProxyHops,
		CountryLookup:    countries.Lookup(),
	})
	return nil
}

func (svc *Service) onClose(fn func(context.Context) error) {
	svc.closers = append(svc.closers, fn)
}

func (svc *Service) Close(ctx context.Context) error {
	var errs []error
	for i := len(svc.closers) - 1; i >= 0; i-- {
		if err := svc.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	svc.closers = nil
	return errors.Join(errs...)
}
