package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/internal/repo"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
)

// Repository reads the principals known to the engine. User CRUD lives
// upstream; only lookups are needed here.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type repository struct {
	base repo.Base
}

// NewRepository returns a user repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.base.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return &user, nil
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.base.DB(ctx).Create(user).Error
}
