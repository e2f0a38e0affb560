package controllers

import (
	"net/http"
	"strings"

	"github.com/emiliorvera/brandvault-backend/api/responses"
	"github.com/emiliorvera/brandvault-backend/api/validators"
	"github.com/emiliorvera/brandvault-backend/internal/audit"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/pagination"
)

// AuditLogList pages through ledger records, newest first.
func AuditLogList(svc *audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseAuditFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Query(r.Context(), audit.QueryParams{Filter: filter, Page: page, Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuditLogSummary buckets ledger records by a reporting dimension.
func AuditLogSummary(svc *audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseAuditFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dimension := strings.TrimSpace(r.URL.Query().Get("groupBy"))
		if dimension == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "groupBy is required"))
			return
		}

		rows, err := svc.Aggregate(r.Context(), dimension, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"groupBy": dimension, "buckets": rows})
	}
}

func parseAuditFilter(r *http.Request) (audit.Filter, error) {
	filter := audit.Filter{
		ResourceType: strings.TrimSpace(r.URL.Query().Get("resourceType")),
	}

	actorID, err := validators.ParseQueryUUID(r, "actorId")
	if err != nil {
		return filter, err
	}
	filter.ActorID = actorID

	resourceID, err := validators.ParseQueryUUID(r, "resourceId")
	if err != nil {
		return filter, err
	}
	filter.ResourceID = resourceID

	if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
		action, err := enums.ParseAuditAction(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid action filter")
		}
		filter.Action = &action
	}

	startDate, err := validators.ParseQueryTime(r, "startDate")
	if err != nil {
		return filter, err
	}
	filter.StartDate = startDate

	endDate, err := validators.ParseQueryTime(r, "endDate")
	if err != nil {
		return filter, err
	}
	filter.EndDate = endDate

	return filter, nil
}
