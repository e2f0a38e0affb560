package middleware

import (
	"net/http"
	"strings"

	"github.com/emiliorvera/brandvault-backend/api/responses"
	pkgauth "github.com/emiliorvera/brandvault-backend/pkg/auth"
	"github.com/emiliorvera/brandvault-backend/pkg/config"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// (user, role, company) triple the engine trusts.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			companyID := ""
			if claims.CompanyID != nil {
				companyID = claims.CompanyID.String()
			}
			ctx := WithPrincipal(r.Context(), claims.UserID.String(), string(claims.Role), companyID)

			if logg != nil {
				fields := map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				}
				if companyID != "" {
					fields["company_id"] = companyID
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
