package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/emiliorvera/brandvault-backend/pkg/enums"
)

// AccessTokenPayload captures the identity triple minted by the session layer.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Role      enums.UserRole
	CompanyID *uuid.UUID
}

// AccessTokenClaims is the typed JWT the engine trusts as its identity input.
type AccessTokenClaims struct {
	UserID    uuid.UUID      `json:"user_id"`
	Role      enums.UserRole `json:"role"`
	CompanyID *uuid.UUID     `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}
