package assets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emiliorvera/brandvault-backend/internal/repo"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
)

// Repository persists assets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, asset *models.Asset) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	Update(ctx context.Context, asset *models.Asset, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, viewer *models.User, params SearchParams) ([]models.Asset, int64, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns an asset repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, asset *models.Asset) error {
	return r.base.DB(ctx).Create(asset).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.base.DB(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindByIDForUpdate locks the row so racing transitions serialize; the loser
// re-reads post-transition state and fails its status check.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	err := r.base.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&asset, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *repository) Update(ctx context.Context, asset *models.Asset, fields map[string]any) error {
	return r.base.DB(ctx).Model(asset).Updates(fields).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Delete(&models.Asset{}, "id = ?", id).Error
}
