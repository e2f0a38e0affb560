package approval

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/internal/assets"
	"github.com/emiliorvera/brandvault-backend/internal/audit"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/metrics"
	"github.com/emiliorvera/brandvault-backend/pkg/types"
)

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the review state machine. Every transition locks the target
// row, re-checks the status under the lock, and commits the asset update and
// its audit record together. A concurrent transition loses the race cleanly:
// it observes the post-transition status and fails the state check.
type Service struct {
	tx      TxRunner
	assets  assets.Repository
	audit   *audit.Service
	metrics *metrics.ApprovalMetrics
	logg    *logger.Logger
}

// NewService constructs the approval workflow service.
func NewService(
	tx TxRunner,
	assetRepo assets.Repository,
	auditSvc *audit.Service,
	apprMetrics *metrics.ApprovalMetrics,
	logg *logger.Logger,
) *Service {
	return &Service{tx: tx, assets: assetRepo, audit: auditSvc, metrics: apprMetrics, logg: logg}
}

// Submit moves an owner's draft into review. Only reviewed-channel assets
// ever enter the queue; private-channel content has no review step.
func (s *Service) Submit(ctx context.Context, actor *models.User, assetID uuid.UUID) (*models.Asset, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor")
	}

	var updated *models.Asset
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		asset, err := s.lockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.OwnerID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner may submit for review")
		}
		if asset.UploadChannel != enums.UploadChannelReviewed {
			return stateConflict(asset, "private-channel assets do not enter review")
		}
		if asset.Status != enums.AssetStatusDraft {
			return stateConflict(asset, "only drafts can be submitted")
		}

		if err := s.assets.WithTx(tx).Update(ctx, asset, map[string]any{
			"status": enums.AssetStatusPendingReview,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating asset status")
		}
		asset.Status = enums.AssetStatusPendingReview

		if _, err := s.audit.RecordTx(ctx, tx, actor.ID, enums.AuditActionSubmit, "asset", asset.ID, types.JSONMap{}); err != nil {
			return err
		}
		updated = asset
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "asset_id", assetID.String()), "asset submitted for review")
	return updated, nil
}

// Approve releases a pending asset under the given visibility. Clearing any
// prior rejection reason keeps the rejection invariant intact.
func (s *Service) Approve(
	ctx context.Context,
	actor *models.User,
	assetID uuid.UUID,
	level enums.VisibilityLevel,
	allowedRole *enums.UserRole,
) (*models.Asset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateVisibility(level, allowedRole); err != nil {
		return nil, err
	}

	var updated *models.Asset
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		asset, err := s.lockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Status != enums.AssetStatusPendingReview {
			return stateConflict(asset, "only pending assets can be approved")
		}

		if err := s.assets.WithTx(tx).Update(ctx, asset, map[string]any{
			"status":           enums.AssetStatusApproved,
			"visibility":       level,
			"allowed_role":     allowedRole,
			"rejection_reason": nil,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying approval")
		}
		asset.Status = enums.AssetStatusApproved
		asset.Visibility = level
		asset.AllowedRole = allowedRole
		asset.RejectionReason = nil

		meta := types.JSONMap{"visibility": level.String()}
		if allowedRole != nil {
			meta["allowed_role"] = allowedRole.String()
		}
		if _, err := s.audit.RecordTx(ctx, tx, actor.ID, enums.AuditActionApprove, "asset", asset.ID, meta); err != nil {
			return err
		}
		updated = asset
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision("approve")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"asset_id":   assetID.String(),
		"visibility": level.String(),
	}), "asset approved")
	return updated, nil
}

// Reject returns a pending asset to its owner with a reason. There is no path
// out of rejected except a fresh submission cycle.
func (s *Service) Reject(ctx context.Context, actor *models.User, assetID uuid.UUID, reason string) (*models.Asset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	var updated *models.Asset
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		asset, err := s.lockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Status != enums.AssetStatusPendingReview {
			return stateConflict(asset, "only pending assets can be rejected")
		}

		if err := s.assets.WithTx(tx).Update(ctx, asset, map[string]any{
			"status":           enums.AssetStatusRejected,
			"rejection_reason": reason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying rejection")
		}
		asset.Status = enums.AssetStatusRejected
		asset.RejectionReason = &reason

		if _, err := s.audit.RecordTx(ctx, tx, actor.ID, enums.AuditActionReject, "asset", asset.ID, types.JSONMap{
			"reason": reason,
		}); err != nil {
			return err
		}
		updated = asset
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision("reject")
	s.logg.Info(s.logg.WithField(ctx, "asset_id", assetID.String()), "asset rejected")
	return updated, nil
}

// ChangeVisibility re-targets an already-approved asset. Draft or rejected
// content must go back through review instead.
func (s *Service) ChangeVisibility(
	ctx context.Context,
	actor *models.User,
	assetID uuid.UUID,
	level enums.VisibilityLevel,
	allowedRole *enums.UserRole,
) (*models.Asset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateVisibility(level, allowedRole); err != nil {
		return nil, err
	}

	var updated *models.Asset
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		asset, err := s.lockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Status != enums.AssetStatusApproved {
			return stateConflict(asset, "visibility can only be edited on approved assets")
		}

		previous := asset.Visibility
		if err := s.assets.WithTx(tx).Update(ctx, asset, map[string]any{
			"visibility":   level,
			"allowed_role": allowedRole,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying visibility change")
		}
		asset.Visibility = level
		asset.AllowedRole = allowedRole

		meta := types.JSONMap{
			"visibility":          level.String(),
			"previous_visibility": previous.String(),
		}
		if allowedRole != nil {
			meta["allowed_role"] = allowedRole.String()
		}
		if _, err := s.audit.RecordTx(ctx, tx, actor.ID, enums.AuditActionVisibilityChange, "asset", asset.ID, meta); err != nil {
			return err
		}
		updated = asset
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision("visibility_change")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"asset_id":   assetID.String(),
		"visibility": level.String(),
	}), "asset visibility changed")
	return updated, nil
}

func (s *Service) lockAsset(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Asset, error) {
	asset, err := s.assets.WithTx(tx).FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking asset")
	}
	return asset, nil
}

func requireAdmin(actor *models.User) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor")
	}
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "review decisions require an admin")
	}
	return nil
}

func validateVisibility(level enums.VisibilityLevel, allowedRole *enums.UserRole) error {
	if !level.IsValid() || level == enums.VisibilityUnset {
		return pkgerrors.New(pkgerrors.CodeValidation, "a visibility level is required")
	}
	if level.RequiresRole() {
		if allowedRole == nil || !allowedRole.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "role_scoped visibility requires an allowed role")
		}
		return nil
	}
	if allowedRole != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "allowed role is only meaningful for role_scoped visibility")
	}
	return nil
}

func stateConflict(asset *models.Asset, message string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).
		WithDetails(map[string]any{"current_status": asset.Status.String()})
}
