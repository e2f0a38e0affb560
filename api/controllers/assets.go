package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/emiliorvera/brandvault-backend/api/middleware"
	"github.com/emiliorvera/brandvault-backend/api/responses"
	"github.com/emiliorvera/brandvault-backend/api/validators"
	"github.com/emiliorvera/brandvault-backend/internal/assets"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/pagination"
)

type assetCreateRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Kind           string `json:"kind" validate:"required"`
	UploadChannel  string `json:"upload_channel" validate:"required"`
	StorageLocator string `json:"storage_locator" validate:"required"`
}

func (r assetCreateRequest) toInput() (assets.CreateInput, error) {
	kind, err := enums.ParseAssetKind(strings.TrimSpace(r.Kind))
	if err != nil {
		return assets.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid kind")
	}
	channel, err := enums.ParseUploadChannel(strings.TrimSpace(r.UploadChannel))
	if err != nil {
		return assets.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid upload_channel")
	}
	return assets.CreateInput{
		Title:          r.Title,
		Kind:           kind,
		UploadChannel:  channel,
		StorageLocator: r.StorageLocator,
	}, nil
}

// AssetCreate stores a new draft for the caller.
func AssetCreate(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assetCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, asset)
	}
}

// AssetDetail returns one asset the caller may view.
func AssetDetail(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
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

		asset, err := svc.Get(r.Context(), actor, assetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// AssetDelete removes an asset that has no remaining share grants.
func AssetDelete(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.Delete(r.Context(), actor, assetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

// AssetList searches assets visible to the caller.
func AssetList(svc *assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parseSearchParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Search(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func parseSearchParams(r *http.Request) (assets.SearchParams, error) {
	query := r.URL.Query()
	params := assets.SearchParams{
		Query:     strings.TrimSpace(query.Get("q")),
		SortBy:    strings.TrimSpace(query.Get("sortBy")),
		SortOrder: strings.ToLower(strings.TrimSpace(query.Get("sortOrder"))),
	}

	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		kind, err := enums.ParseAssetKind(raw)
		if err != nil {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "invalid type filter")
		}
		params.Kind = &kind
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseAssetStatus(raw)
		if err != nil {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		params.Status = &status
	}

	switch scope := strings.TrimSpace(query.Get("uploaderScope")); scope {
	case "", string(assets.UploaderScopeMine), string(assets.UploaderScopeOthers):
		params.Uploader = assets.UploaderScope(scope)
	default:
		return params, pkgerrors.New(pkgerrors.CodeValidation, "invalid uploaderScope filter")
	}

	companyID, err := validators.ParseQueryUUID(r, "company")
	if err != nil {
		return params, err
	}
	params.CompanyID = companyID

	assignedTo, err := validators.ParseQueryUUID(r, "assignedTo")
	if err != nil {
		return params, err
	}
	params.AssignedTo = assignedTo

	dateFrom, err := validators.ParseQueryTime(r, "dateFrom")
	if err != nil {
		return params, err
	}
	params.DateFrom = dateFrom

	dateTo, err := validators.ParseQueryTime(r, "dateTo")
	if err != nil {
		return params, err
	}
	params.DateTo = dateTo

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return params, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return params, err
	}
	params.Page = pagination.Params{Page: page, Limit: limit}

	return params, nil
}
