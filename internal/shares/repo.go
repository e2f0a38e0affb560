package shares

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/internal/repo"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
)

// Repository persists share grants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, grant *models.ShareGrant) error
	Delete(ctx context.Context, assetID, granteeUserID uuid.UUID) (int64, error)
	HasGrant(ctx context.Context, assetID, userID uuid.UUID) (bool, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]models.ShareGrant, error)
	CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a share-grant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.Rebind(tx)}
}

func (r *repository) Create(ctx context.Context, grant *models.ShareGrant) error {
	return r.base.DB(ctx).Create(grant).Error
}

func (r *repository) Delete(ctx context.Context, assetID, granteeUserID uuid.UUID) (int64, error) {
	result := r.base.DB(ctx).
		Where("asset_id = ? AND grantee_user_id = ?", assetID, granteeUserID).
		Delete(&models.ShareGrant{})
	return result.RowsAffected, result.Error
}

func (r *repository) HasGrant(ctx context.Context, assetID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.ShareGrant{}).
		Where("asset_id = ? AND grantee_user_id = ?", assetID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]models.ShareGrant, error) {
	var grants []models.ShareGrant
	err := r.base.DB(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *repository) CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.ShareGrant{}).
		Where("asset_id = ?", assetID).
		Count(&count).Error
	return count, err
}
