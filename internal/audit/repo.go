package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/internal/repo"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
)

// Filter narrows ledger queries. Zero-valued fields are ignored.
type Filter struct {
	ActorID      *uuid.UUID
	Action       *enums.AuditAction
	ResourceType string
	ResourceID   *uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
}

// AggregateRow is one bucket of the reporting query.
type AggregateRow struct {
	Bucket string `gorm:"column:bucket" json:"bucket"`
	Count  int64  `gorm:"column:count" json:"count"`
}

// Repository persists ledger records. The interface deliberately exposes no
// update or delete: mutation of the ledger is impossible to express against
// this type. The model hooks and the database trigger back that up for any
// path that reaches the table another way.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.AuditRecord) error
	Query(ctx context.Context, filter Filter, limit, offset int) ([]models.AuditRecord, int64, error)
	Aggregate(ctx context.Context, groupExpr string, filter Filter) ([]AggregateRow, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, record *models.AuditRecord) error {
	return r.base.DB(ctx).Create(record).Error
}

func (r *repository) Query(ctx context.Context, filter Filter, limit, offset int) ([]models.AuditRecord, int64, error) {
	query := r.applyFilter(r.base.DB(ctx).Model(&models.AuditRecord{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.AuditRecord
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *repository) Aggregate(ctx context.Context, groupExpr string, filter Filter) ([]AggregateRow, error) {
	var rows []AggregateRow
	err := r.applyFilter(r.base.DB(ctx).Model(&models.AuditRecord{}), filter).
		Select(groupExpr + " AS bucket, COUNT(*) AS count").
		Group(groupExpr).
		Order("count DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	return query
}
