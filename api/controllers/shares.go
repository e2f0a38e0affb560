package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emiliorvera/brandvault-backend/api/middleware"
	"github.com/emiliorvera/brandvault-backend/api/responses"
	"github.com/emiliorvera/brandvault-backend/api/validators"
	"github.com/emiliorvera/brandvault-backend/internal/shares"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
)

type shareCreateRequest struct {
	GranteeUserID string `json:"grantee_user_id" validate:"required,uuid4"`
}

// ShareCreate grants an explicit per-user visibility exception.
func ShareCreate(svc *shares.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload shareCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		granteeID, err := validators.PathUUID(payload.GranteeUserID, "grantee_user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid grantee_user_id"))
			return
		}

		grant, err := svc.Grant(r.Context(), actor, assetID, granteeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, grant)
	}
}

// ShareRevoke removes a previously granted exception.
func ShareRevoke(svc *shares.Service, logg *logger.Logger) http.HandlerFunc {
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

		granteeID, err := validators.PathUUID(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Revoke(r.Context(), actor, assetID, granteeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"revoked": true})
	}
}

// ShareList returns the grants on an asset, owner or admin only.
func ShareList(svc *shares.Service, logg *logger.Logger) http.HandlerFunc {
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

		grants, err := svc.List(r.Context(), actor, assetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, grants)
	}
}
