package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/pkg/enums"
)

// Asset is one unit of uploaded marketing content. Ownership never changes.
// RejectionReason is non-nil iff Status is rejected; AllowedRole is non-nil
// only when Visibility is role_scoped.
type Asset struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID         uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;index"`
	CompanyID       *uuid.UUID            `gorm:"column:company_id;type:uuid;index"`
	Title           string                `gorm:"column:title;not null"`
	Kind            enums.AssetKind       `gorm:"column:kind;type:asset_kind;not null"`
	UploadChannel   enums.UploadChannel   `gorm:"column:upload_channel;type:upload_channel;not null"`
	Status          enums.AssetStatus     `gorm:"column:status;type:asset_status;not null;default:draft;index"`
	Visibility      enums.VisibilityLevel `gorm:"column:visibility;type:visibility_level;not null;default:unset"`
	AllowedRole     *enums.UserRole       `gorm:"column:allowed_role;type:user_role"`
	RejectionReason *string               `gorm:"column:rejection_reason"`
	StorageLocator  string                `gorm:"column:storage_locator;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
