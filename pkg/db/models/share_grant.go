package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareGrant is an explicit per-user visibility exception owned by the asset.
type ShareGrant struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	AssetID       uuid.UUID `gorm:"column:asset_id;type:uuid;not null;uniqueIndex:idx_share_grants_asset_grantee"`
	GranteeUserID uuid.UUID `gorm:"column:grantee_user_id;type:uuid;not null;uniqueIndex:idx_share_grants_asset_grantee"`
	CreatedBy     uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *ShareGrant) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
