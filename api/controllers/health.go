package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/emiliorvera/brandvault-backend/api/responses"
	"github.com/emiliorvera/brandvault-backend/pkg/config"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
)

const envHeader = "X-BrandVault-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				ready = false
				checks[name] = "unavailable"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			checks[name] = "ok"
		}

		if !ready {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"checks": checks,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

// Readiness returns the standard dependency set for HealthReady.
func Readiness(db pinger, cache pinger) map[string]pinger {
	return map[string]pinger{
		"database": db,
		"redis":    cache,
	}
}
