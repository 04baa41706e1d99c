package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-erp/internal/audit"
	"github.com/noah-isme/backend-erp/internal/cache"
	"github.com/noah-isme/backend-erp/internal/common"
	"github.com/noah-isme/backend-erp/internal/health"
	"github.com/noah-isme/backend-erp/internal/obs"
	"github.com/noah-isme/backend-erp/internal/purchase"
	"github.com/noah-isme/backend-erp/internal/ratelimit"
	"github.com/noah-isme/backend-erp/internal/repo"
	"github.com/noah-isme/backend-erp/internal/resilience"
	"github.com/noah-isme/backend-erp/internal/supplier"
)

// Handler builds the full HTTP handler from connected dependencies.
// A nil registry registers metrics on the Prometheus default registry.
func (d *Dependencies) Handler(reg *prometheus.Registry) (http.Handler, error) {
	cfg := d.Config
	logger := d.Logger

	discounts := &repo.SupplierDiscountRepo{DB: d.DB}
	products := &repo.ProductsRepo{DB: d.DB}

	dbGuard := &resilience.Guard{
		Breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Dependency:   "postgres",
			MinRequests:  cfg.BreakerMinRequests,
			FailureRatio: cfg.BreakerFailureRatio,
			OpenFor:      cfg.BreakerOpenFor,
			Logger:       logger,
		}),
		MaxAttempts: cfg.DBRetryAttempts,
		BaseBackoff: 50 * time.Millisecond,
		Jitter:      0.2,
		Retryable:   repo.IsTransient,
	}

	engine := purchase.NewEngine(cfg.Pricing(), logger.With().Str("component", "discount_engine").Logger())
	previewSvc := &purchase.Service{
		Rules:    purchase.GuardedRules{Store: discounts, Guard: dbGuard},
		Products: purchase.GuardedProducts{Lookup: products, Guard: dbGuard},
		Engine:   engine,
		Cache:    cache.NewJSON(d.Redis, cfg.PreviewCacheTTL),
		Logger:   logger,
	}

	opts := RouterOptions{
		Logger:       logger,
		Tracing:      cfg.TracingEnabled,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
		HSTS:         cfg.IsProduction(),
		Idem:         common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL},
	}

	auditRepo := repo.AuditRepo{DB: d.DB}
	opts.Audit = audit.HTTPRecorder{
		Service: &audit.Service{Store: auditRepo, Enabled: cfg.AuditEnabled},
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit entry") },
	}

	if cfg.MetricsEnabled {
		var registerer prometheus.Registerer = prometheus.DefaultRegisterer
		opts.MetricsHandler = promhttp.Handler()
		if reg != nil {
			registerer = reg
			opts.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		}
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, registerer)
		opts.Metrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), registerer)
	}

	limitErr := func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") }
	opts.PreviewLimit = ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: d.Redis, Prefix: "erp:ratelimit:preview:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ClientIPKey,
			Window: cfg.PreviewRateLimitWindow,
			Max:    cfg.PreviewRateLimitMax,
		},
		OnError:   limitErr,
		OnLimited: func(string) { obs.IncCounter(obs.DiscountPreviewsTotal, "rate_limited") },
	}.Middleware

	adminLimit, err := ratelimit.FixedWindow(d.LimiterStore, cfg.AdminRateLimit, ratelimit.SupplierKey, limitErr)
	if err != nil {
		return nil, err
	}
	opts.AdminLimit = adminLimit

	modules := Modules{
		Discounts: &supplier.Handler{Repo: discounts, Logger: logger},
		Preview:   &purchase.Handler{Svc: previewSvc},
		Health:    health.Handler{Checker: d},
		Audit:     &audit.Handler{Store: auditRepo},
	}
	return NewRouter(modules, opts), nil
}
