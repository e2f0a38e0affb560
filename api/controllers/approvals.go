package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/emiliorvera/brandvault-backend/api/middleware"
	"github.com/emiliorvera/brandvault-backend/api/responses"
	"github.com/emiliorvera/brandvault-backend/api/validators"
	"github.com/emiliorvera/brandvault-backend/internal/approval"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
)

type visibilityRequest struct {
	Visibility  string  `json:"visibility" validate:"required"`
	AllowedRole *string `json:"allowed_role,omitempty"`
}

func (r visibilityRequest) parse() (enums.VisibilityLevel, *enums.UserRole, error) {
	level, err := enums.ParseVisibilityLevel(strings.TrimSpace(r.Visibility))
	if err != nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid visibility")
	}
	var allowedRole *enums.UserRole
	if r.AllowedRole != nil {
		role, err := enums.ParseUserRole(strings.TrimSpace(*r.AllowedRole))
		if err != nil {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid allowed_role")
		}
		allowedRole = &role
	}
	return level, allowedRole, nil
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AssetSubmit moves the caller's draft into the review queue.
func AssetSubmit(svc *approval.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := validators.PathUUID(chi.URLParam(r, "assetId"), "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.Submit(r.Context(), actor, assetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// AssetApprove releases a pending asset under the requested visibility.
func AssetApprove(svc *approval.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := validators.PathUUID(chi.URLParam(r, "assetId"), "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload visibilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		level, allowedRole, err := payload.parse()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.Approve(r.Context(), actor, assetID, level, allowedRole)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// AssetReject returns a pending asset to its owner with a reason.
func AssetReject(svc *approval.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := validators.PathUUID(chi.URLParam(r, "assetId"), "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.Reject(r.Context(), actor, assetID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// AssetVisibilityChange re-targets an approved asset without touching status.
func AssetVisibilityChange(svc *approval.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := validators.PathUUID(chi.URLParam(r, "assetId"), "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload visibilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		level, allowedRole, err := payload.parse()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.ChangeVisibility(r.Context(), actor, assetID, level, allowedRole)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}
