package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/pkg/enums"
)

// User is a principal known to the engine. Authentication happens upstream;
// the engine only consumes the (id, role, company) triple.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email     string         `gorm:"column:email;not null;unique"`
	Name      string         `gorm:"column:name;not null"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null"`
	CompanyID *uuid.UUID     `gorm:"column:company_id;type:uuid"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
