package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxRole      contextKey = "actor_role"
	ctxCompanyID contextKey = "company_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func CompanyIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCompanyID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal seeds the context with the authenticated identity triple.
func WithPrincipal(ctx context.Context, userID, role, companyID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if companyID != "" {
		ctx = context.WithValue(ctx, ctxCompanyID, companyID)
	}
	return ctx
}

// ActorFromContext reconstructs the caller as the engine's principal shape.
// The identity layer upstream has already authenticated the triple; nothing
// here consults storage.
func ActorFromContext(ctx context.Context) (*models.User, error) {
	rawID := UserIDFromContext(ctx)
	if rawID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseUserRole(RoleFromContext(ctx))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}

	actor := &models.User{ID: id, Role: role}
	if raw := CompanyIDFromContext(ctx); raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid company id")
		}
		actor.CompanyID = &companyID
	}
	return actor, nil
}
