package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tryon/internal/http/handlers"
	"tryon/internal/i18n"
	"tryon/internal/middleware"
	"tryon/internal/observability/metrics"
	"tryon/internal/observability/tracing"
)

type Options struct {
	Logger          zerolog.Logger
	Metrics         *metrics.Metrics
	CORSOrigins     []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	DefaultLocale   string

	// TrustedProxyHops is the number of proxies appending to X-Forwarded-For.
	TrustedProxyHops int
}

// NewRouter returns the concrete mux so the Lambda adapter can wrap it.
func NewRouter(app *handlers.App, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP(opts.TrustedProxyHops),
		tracing.Middleware,
		opts.Metrics.Middleware,
		middleware.I18N(defaultLocale(opts.DefaultLocale), opts.CountryLookup),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Handle("/metrics", opts.Metrics.Handler())

	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/readyz", app.Ready)
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/chat", app.Chat)
			r.Post("/tryon", app.TryOn)
			r.Get("/quota", app.Quota)
		})
	})
	// Edge-function paths used by existing mobile clients.
	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(limited)
		r.Post("/chat", app.Chat)
		r.Post("/tryon", app.TryOn)
	})

	r.NotFound(app.NotFound)

	return r
}

func defaultLocale(l string) string {
	if l == "" {
		return i18n.English
	}
	return l
}
