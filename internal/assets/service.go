package assets

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/internal/audit"
	"github.com/emiliorvera/brandvault-backend/internal/visibility"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/pagination"
	"github.com/emiliorvera/brandvault-backend/pkg/types"
)

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ShareCounter reports how many share grants reference an asset.
type ShareCounter interface {
	CountByAsset(ctx context.Context, assetID uuid.UUID) (int64, error)
}

// CreateInput is the caller-facing shape of a draft upload.
type CreateInput struct {
	Title          string
	Kind           enums.AssetKind
	UploadChannel  enums.UploadChannel
	StorageLocator string
}

// SearchResult is one page of visible assets with an accurate total.
type SearchResult struct {
	Items      []models.Asset `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

// Service owns asset lifecycle outside of review: draft creation, visibility-
// checked reads, filtered search, and deletion.
type Service struct {
	tx     TxRunner
	repo   Repository
	engine *visibility.Engine
	shares ShareCounter
	audit  *audit.Service
	logg   *logger.Logger
}

// NewService constructs the asset service.
func NewService(
	tx TxRunner,
	repo Repository,
	engine *visibility.Engine,
	shares ShareCounter,
	auditSvc *audit.Service,
	logg *logger.Logger,
) *Service {
	return &Service{tx: tx, repo: repo, engine: engine, shares: shares, audit: auditSvc, logg: logg}
}

// Create stores a new draft owned by the actor. Visibility starts unset and
// is only assigned at approval time.
func (s *Service) Create(ctx context.Context, actor *models.User, input CreateInput) (*models.Asset, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown asset kind")
	}
	if !input.UploadChannel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown upload channel")
	}
	if strings.TrimSpace(input.StorageLocator) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage locator is required")
	}

	asset := &models.Asset{
		OwnerID:        actor.ID,
		CompanyID:      actor.CompanyID,
		Title:          strings.TrimSpace(input.Title),
		Kind:           input.Kind,
		UploadChannel:  input.UploadChannel,
		Status:         enums.AssetStatusDraft,
		Visibility:     enums.VisibilityUnset,
		StorageLocator: input.StorageLocator,
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating asset")
	}

	s.logg.Info(s.logg.WithField(ctx, "asset_id", asset.ID.String()), "draft asset created")
	return asset, nil
}

// FindByID loads an asset with no visibility check. Callers that act on
// behalf of a viewer use Get instead.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading asset")
	}
	return asset, nil
}

// Get loads an asset the viewer is allowed to see. A denial is reported as
// not-found so the response does not reveal that the asset exists.
func (s *Service) Get(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Asset, error) {
	asset, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed, err := s.engine.CanView(ctx, viewer, asset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "evaluating visibility")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
	}
	return asset, nil
}

// Search returns the page of candidate assets the viewer may see.
func (s *Service) Search(ctx context.Context, viewer *models.User, params SearchParams) (*SearchResult, error) {
	if viewer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing viewer")
	}
	items, total, err := s.repo.Search(ctx, viewer, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "searching assets")
	}
	page := params.Page.Normalize()
	return &SearchResult{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

// Delete removes an asset. Deletion is rejected while share grants still
// reference it; revoking them first keeps the trail explicit instead of
// cascading silently.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	asset, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor")
	}
	if actor.Role != enums.UserRoleAdmin && actor.ID != asset.OwnerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the asset owner or an admin may delete")
	}

	children, err := s.shares.CountByAsset(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting share grants")
	}
	if children > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "asset still has share grants").
			WithDetails(map[string]any{"share_grants": children})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting asset")
		}
		_, err := s.audit.RecordTx(ctx, tx, actor.ID, enums.AuditActionAssetDelete, "asset", id, types.JSONMap{
			"title":  asset.Title,
			"status": asset.Status.String(),
		})
		return err
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "asset_id", id.String()), "asset deleted")
	return nil
}
