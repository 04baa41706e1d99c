package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-erp/internal/audit"
	"github.com/noah-isme/backend-erp/internal/common"
	"github.com/noah-isme/backend-erp/internal/health"
	"github.com/noah-isme/backend-erp/internal/obs"
	"github.com/noah-isme/backend-erp/internal/purchase"
	"github.com/noah-isme/backend-erp/internal/security"
	"github.com/noah-isme/backend-erp/internal/supplier"
)

// Modules are the HTTP handlers mounted by the router.
type Modules struct {
	Discounts *supplier.Handler
	Preview   *purchase.Handler
	Health    health.Handler
	Audit     *audit.Handler
}

// RouterOptions carries the cross-cutting middleware configuration.
type RouterOptions struct {
	Logger         zerolog.Logger
	Metrics        *obs.HTTPMetrics
	MetricsHandler http.Handler
	Tracing        bool
	CORSOrigins    []string
	MaxBodyBytes   int64
	HSTS           bool
	Idem           common.Idem
	Audit          audit.HTTPRecorder
	// PreviewLimit and AdminLimit are optional rate limiting middlewares.
	PreviewLimit func(http.Handler) http.Handler
	AdminLimit   func(http.Handler) http.Handler
}

// NewRouter assembles the chi router with observability, security and API routes.
func NewRouter(m Modules, o RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if o.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if o.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: o.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: o.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(o.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", common.IdempotencyHeader, middleware.RequestIDHeader, audit.ActorHeader},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: o.HSTS, NoStore: true}.Middleware)

	if o.MetricsHandler != nil {
		r.Handle("/metrics", o.MetricsHandler)
	}
	r.Get("/health/live", m.Health.Live)
	r.Get("/health/ready", m.Health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: o.MaxBodyBytes}.Middleware)

		if m.Preview != nil {
			v.With(optional(o.PreviewLimit)).Post("/purchases/discount-preview", m.Preview.Preview)
		}

		if m.Discounts != nil {
			v.Route("/suppliers/{supplierID}/discounts", func(d chi.Router) {
				d.Use(optional(o.AdminLimit))
				d.Get("/", m.Discounts.List)
				d.With(o.Idem.Middleware, o.auditWrite("discount.create", "")).Post("/", m.Discounts.Create)
				if m.Audit != nil {
					d.Get("/audit", m.Audit.List)
				}
				d.Route("/{id}", func(item chi.Router) {
					item.Get("/", m.Discounts.Get)
					item.With(o.auditWrite("discount.update", "id")).Put("/", m.Discounts.Update)
					item.With(o.auditWrite("discount.set_active", "id")).Patch("/active", m.Discounts.SetActive)
					item.With(o.auditWrite("discount.delete", "id")).Delete("/", m.Discounts.Delete)
				})
			})
		}
	})
	return r
}

func (o RouterOptions) auditWrite(action, idParam string) func(http.Handler) http.Handler {
	return o.Audit.Middleware(audit.HTTPConfig{
		Action:          action,
		ResourceType:    "supplier_discount",
		ResourceIDParam: idParam,
		SupplierParam:   "supplierID",
	})
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func optional(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
