package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/types"
)

// AuditRecord is one immutable fact in the audit ledger. The hooks below
// reject every ORM update or delete path; a database trigger enforces the
// same rule for statements that bypass the ORM entirely.
type AuditRecord struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ActorID      uuid.UUID         `gorm:"column:actor_id;type:uuid;not null;index"`
	Action       enums.AuditAction `gorm:"column:action;type:audit_action;not null;index"`
	ResourceType string            `gorm:"column:resource_type;not null;index"`
	ResourceID   uuid.UUID         `gorm:"column:resource_id;type:uuid;not null;index"`
	Metadata     types.JSONMap     `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (r *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate fires on every ORM update path, including Save on a record
// with a preset key. A Save whose key is not stored yet is an insert in
// disguise: the hook lets the zero-row update through so GORM falls back to
// the create path. Any update that would touch a stored row is rejected.
func (r *AuditRecord) BeforeUpdate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeImmutable, "audit records cannot be updated")
	}
	var count int64
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&AuditRecord{}).
		Where("id = ?", r.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeImmutable, "audit records cannot be updated")
	}
	return nil
}

func (r *AuditRecord) BeforeDelete(tx *gorm.DB) error {
	return pkgerrors.New(pkgerrors.CodeImmutable, "audit records cannot be deleted")
}
