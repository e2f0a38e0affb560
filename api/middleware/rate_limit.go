package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/emiliorvera/brandvault-backend/api/responses"
	"github.com/emiliorvera/brandvault-backend/pkg/config"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
)

type mutationLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// MutationRateLimit throttles state-changing requests per user. Reads are
// never throttled here; the listing endpoints bound their own work via
// pagination caps.
func MutationRateLimit(cfg config.MutationRateLimitConfig, store mutationLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			userID := UserIDFromContext(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(r.Context(), "mutation:"+userID, int64(cfg.Limit), cfg.Window)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{"count": count, "limit": cfg.Limit})
					logg.Warn(ctx, "mutation rate limit exceeded")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many mutations"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
