package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emiliorvera/brandvault-backend/pkg/config"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "brandvault"}
	companyID := uuid.New()
	payload := AccessTokenPayload{
		UserID:    uuid.New(),
		Role:      enums.UserRoleSpecialist,
		CompanyID: &companyID,
	}

	signed, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("MintAccessToken error: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken error: %v", err)
	}
	if claims.UserID != payload.UserID {
		t.Fatalf("user id mismatch: %s", claims.UserID)
	}
	if claims.Role != enums.UserRoleSpecialist {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
	if claims.CompanyID == nil || *claims.CompanyID != companyID {
		t.Fatalf("company id mismatch: %v", claims.CompanyID)
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	signed, err := MintAccessToken(config.JWTConfig{Secret: "s", Issuer: "other"}, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("MintAccessToken error: %v", err)
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "s", Issuer: "brandvault"}, signed); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestMintAccessTokenRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(config.JWTConfig{Secret: "s", Issuer: "i"}, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRole("superuser"),
	})
	if err == nil {
		t.Fatal("expected invalid role error")
	}
}
