package assets

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emiliorvera/brandvault-backend/internal/visibility"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	"github.com/emiliorvera/brandvault-backend/pkg/pagination"
)

// UploaderScope narrows a search to the viewer's own uploads or everyone
// else's.
type UploaderScope string

const (
	UploaderScopeAny    UploaderScope = ""
	UploaderScopeMine   UploaderScope = "mine"
	UploaderScopeOthers UploaderScope = "others"
)

// SearchParams is a candidate query before the visibility predicate is
// applied.
type SearchParams struct {
	Query      string
	Kind       *enums.AssetKind
	Status     *enums.AssetStatus
	CompanyID  *uuid.UUID
	Uploader   UploaderScope
	AssignedTo *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     string
	SortOrder  string
	Page       pagination.Params
}

var sortColumns = map[string]string{
	"":           "created_at",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
	"status":     "status",
}

func (p SearchParams) orderClause() string {
	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if p.SortOrder == "asc" {
		direction = "ASC"
	}
	return column + " " + direction
}

// Search applies the viewer's visibility predicate before counting and
// paginating, so the reported total always equals the number of rows the
// viewer could page through.
func (r *repository) Search(ctx context.Context, viewer *models.User, params SearchParams) ([]models.Asset, int64, error) {
	query := r.base.DB(ctx).
		Model(&models.Asset{}).
		Scopes(visibility.Scope(viewer))

	if params.Query != "" {
		query = query.Where("title LIKE ?", "%"+params.Query+"%")
	}
	if params.Kind != nil {
		query = query.Where("kind = ?", *params.Kind)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CompanyID != nil {
		query = query.Where("company_id = ?", *params.CompanyID)
	}
	if params.AssignedTo != nil {
		query = query.Where("owner_id = ?", *params.AssignedTo)
	}
	if viewer != nil {
		switch params.Uploader {
		case UploaderScopeMine:
			query = query.Where("owner_id = ?", viewer.ID)
		case UploaderScopeOthers:
			query = query.Where("owner_id <> ?", viewer.ID)
		}
	}
	if params.DateFrom != nil {
		query = query.Where("created_at >= ?", *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where("created_at <= ?", *params.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := params.Page.Normalize()
	var items []models.Asset
	err := query.
		Order(params.orderClause()).
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
