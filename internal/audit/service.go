package audit

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/pagination"
	"github.com/emiliorvera/brandvault-backend/pkg/types"
)

// QueryParams is the caller-facing shape of a ledger query.
type QueryParams struct {
	Filter Filter
	Page   int
	Limit  int
}

// QueryResult is a paginated ledger page with an accurate total.
type QueryResult struct {
	Records    []models.AuditRecord `json:"records"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
}

// Group expressions allowed for the reporting aggregation. The expression is
// interpolated into SQL, so only these fixed dimensions are ever accepted.
var aggregateDimensions = map[string]string{
	"action":        "action",
	"resource_type": "resource_type",
	"actor":         "actor_id",
	"day":           "date(created_at)",
}

// Service is the write-once, read-many surface of the audit ledger.
type Service struct {
	repo     Repository
	logg     *logger.Logger
	maxLimit int
}

// NewService constructs the ledger service. maxLimit bounds query page sizes;
// zero falls back to the shared listing cap.
func NewService(repo Repository, logg *logger.Logger, maxLimit int) *Service {
	if maxLimit <= 0 {
		maxLimit = pagination.MaxLimit
	}
	return &Service{repo: repo, logg: logg, maxLimit: maxLimit}
}

// Record appends one fact to the ledger. This is the only write the ledger
// supports.
func (s *Service) Record(
	ctx context.Context,
	actorID uuid.UUID,
	action enums.AuditAction,
	resourceType string,
	resourceID uuid.UUID,
	metadata types.JSONMap,
) (*models.AuditRecord, error) {
	record, err := buildRecord(actorID, action, resourceType, resourceID, metadata)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending audit record")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"audit_action":  action.String(),
		"resource_type": resourceType,
		"resource_id":   resourceID.String(),
	}), "audit record appended")
	return record, nil
}

// RecordTx appends a fact inside the caller's transaction so a state change
// and its audit trail commit or roll back together.
func (s *Service) RecordTx(
	ctx context.Context,
	tx *gorm.DB,
	actorID uuid.UUID,
	action enums.AuditAction,
	resourceType string,
	resourceID uuid.UUID,
	metadata types.JSONMap,
) (*models.AuditRecord, error) {
	record, err := buildRecord(actorID, action, resourceType, resourceID, metadata)
	if err != nil {
		return nil, err
	}
	if err := s.repo.WithTx(tx).Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending audit record")
	}
	return record, nil
}

func buildRecord(
	actorID uuid.UUID,
	action enums.AuditAction,
	resourceType string,
	resourceID uuid.UUID,
	metadata types.JSONMap,
) (*models.AuditRecord, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown audit action")
	}
	if strings.TrimSpace(resourceType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource type is required")
	}
	if resourceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource id is required")
	}
	if metadata == nil {
		metadata = types.JSONMap{}
	}
	return &models.AuditRecord{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
	}, nil
}

// Query returns a ledger page. Limits are clamped to the configured maximum
// regardless of what the caller asks for.
func (s *Service) Query(ctx context.Context, params QueryParams) (*QueryResult, error) {
	page := params.Page
	if page <= 0 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	offset := (page - 1) * limit

	records, total, err := s.repo.Query(ctx, params.Filter, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "querying audit records")
	}
	return &QueryResult{
		Records:    records,
		Total:      total,
		Page:       page,
		TotalPages: pagination.TotalPages(total, limit),
	}, nil
}

// Aggregate buckets ledger records by a fixed reporting dimension. The result
// is computed read-only over the ledger, never written back into it.
func (s *Service) Aggregate(ctx context.Context, dimension string, filter Filter) ([]AggregateRow, error) {
	expr, ok := aggregateDimensions[strings.ToLower(strings.TrimSpace(dimension))]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown aggregation dimension").
			WithDetails(map[string]any{"allowed": []string{"action", "resource_type", "actor", "day"}})
	}
	rows, err := s.repo.Aggregate(ctx, expr, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregating audit records")
	}
	return rows, nil
}
