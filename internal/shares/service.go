package shares

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/internal/audit"
	"github.com/emiliorvera/brandvault-backend/pkg/db"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/types"
)

// AssetFinder loads assets for authorization checks.
type AssetFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
}

// UserFinder confirms a grantee exists before a share is written.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages explicit per-user visibility exceptions. Grants and
// revocations are audited inside the same transaction as the write.
type Service struct {
	tx     TxRunner
	repo   Repository
	assets AssetFinder
	users  UserFinder
	audit  *audit.Service
	logg   *logger.Logger
}

// NewService constructs the share-grant service.
func NewService(
	tx TxRunner,
	repo Repository,
	assets AssetFinder,
	users UserFinder,
	auditSvc *audit.Service,
	logg *logger.Logger,
) *Service {
	return &Service{tx: tx, repo: repo, assets: assets, users: users, audit: auditSvc, logg: logg}
}

// Grant creates a share for granteeID on the asset. Only the asset's owner or
// an admin may grant; a duplicate grant is a conflict.
func (s *Service) Grant(ctx context.Context, actor *models.User, assetID, granteeID uuid.UUID) (*models.ShareGrant, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, asset); err != nil {
		return nil, err
	}
	if granteeID == asset.OwnerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner already sees their own asset")
	}
	if _, err := s.users.FindByID(ctx, granteeID); err != nil {
		return nil, err
	}

	grant := &models.ShareGrant{
		AssetID:       assetID,
		GranteeUserID: granteeID,
		CreatedBy:     actor.ID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, grant); err != nil {
			if db.IsUniqueViolation(err, "idx_share_grants_asset_grantee") {
				return pkgerrors.New(pkgerrors.CodeConflict, "share grant already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating share grant")
		}
		_, err := s.audit.RecordTx(ctx, tx, actor.ID, enums.AuditActionShareGrant, "asset", assetID, types.JSONMap{
			"grantee_user_id": granteeID.String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"asset_id":   assetID.String(),
		"grantee_id": granteeID.String(),
	}), "share granted")
	return grant, nil
}

// Revoke removes a share for granteeID on the asset. Only the asset's owner
// or an admin may revoke; revoking a share that does not exist is NotFound.
func (s *Service) Revoke(ctx context.Context, actor *models.User, assetID, granteeID uuid.UUID) error {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, asset); err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).Delete(ctx, assetID, granteeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoking share grant")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "share grant not found")
		}
		_, err = s.audit.RecordTx(ctx, tx, actor.ID, enums.AuditActionShareRevoke, "asset", assetID, types.JSONMap{
			"grantee_user_id": granteeID.String(),
		})
		return err
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"asset_id":   assetID.String(),
		"grantee_id": granteeID.String(),
	}), "share revoked")
	return nil
}

// List returns the grants on an asset, restricted to the owner or an admin.
func (s *Service) List(ctx context.Context, actor *models.User, assetID uuid.UUID) ([]models.ShareGrant, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, asset); err != nil {
		return nil, err
	}
	grants, err := s.repo.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing share grants")
	}
	return grants, nil
}

// HasGrant satisfies the visibility engine's share lookup.
func (s *Service) HasGrant(ctx context.Context, assetID, userID uuid.UUID) (bool, error) {
	return s.repo.HasGrant(ctx, assetID, userID)
}

func (s *Service) authorize(actor *models.User, asset *models.Asset) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor")
	}
	if actor.Role == enums.UserRoleAdmin || actor.ID == asset.OwnerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the asset owner or an admin may manage shares")
}
