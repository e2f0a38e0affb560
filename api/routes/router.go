package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emiliorvera/brandvault-backend/api/controllers"
	"github.com/emiliorvera/brandvault-backend/api/middleware"
	"github.com/emiliorvera/brandvault-backend/internal/approval"
	"github.com/emiliorvera/brandvault-backend/internal/assets"
	"github.com/emiliorvera/brandvault-backend/internal/audit"
	"github.com/emiliorvera/brandvault-backend/internal/shares"
	"github.com/emiliorvera/brandvault-backend/pkg/config"
	"github.com/emiliorvera/brandvault-backend/pkg/db"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	assetService *assets.Service,
	approvalService *approval.Service,
	shareService *shares.Service,
	auditService *audit.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.Readiness(dbClient, redisClient)))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.MutationRateLimit(cfg.MutationLimit, redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", controllers.AssetCreate(assetService, logg))
			r.Get("/", controllers.AssetList(assetService, logg))

			r.Route("/{assetId}", func(r chi.Router) {
				r.Get("/", controllers.AssetDetail(assetService, logg))
				r.Delete("/", controllers.AssetDelete(assetService, logg))
				r.Post("/submit", controllers.AssetSubmit(approvalService, logg))

				r.Route("/shares", func(r chi.Router) {
					r.Get("/", controllers.ShareList(shareService, logg))
					r.Post("/", controllers.ShareCreate(shareService, logg))
					r.Delete("/{userId}", controllers.ShareRevoke(shareService, logg))
				})
			})
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.MutationRateLimit(cfg.MutationLimit, redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/assets/{assetId}", func(r chi.Router) {
			r.Post("/approve", controllers.AssetApprove(approvalService, logg))
			r.Post("/reject", controllers.AssetReject(approvalService, logg))
			r.Patch("/visibility", controllers.AssetVisibilityChange(approvalService, logg))
		})

		r.Route("/v1/audit-logs", func(r chi.Router) {
			r.Get("/", controllers.AuditLogList(auditService, logg))
			r.Get("/summary", controllers.AuditLogSummary(auditService, logg))
		})
	})

	return r
}
