package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the shared foundation every domain repository embeds.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository over the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx, or the raw connection when ctx is nil.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Rebind returns a Base over tx, used by repositories implementing WithTx.
func (b Base) Rebind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
