package approval

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/internal/assets"
	"github.com/emiliorvera/brandvault-backend/internal/audit"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeAssetRepo struct {
	assets      map[uuid.UUID]*models.Asset
	lastUpdate  map[string]any
	updateCalls int
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: map[uuid.UUID]*models.Asset{}}
}

func (f *fakeAssetRepo) WithTx(*gorm.DB) assets.Repository { return f }

func (f *fakeAssetRepo) Create(_ context.Context, asset *models.Asset) error {
	f.assets[asset.ID] = asset
	return nil
}

func (f *fakeAssetRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Asset, error) {
	asset, ok := f.assets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *asset
	return &copied, nil
}

func (f *fakeAssetRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeAssetRepo) Update(_ context.Context, asset *models.Asset, fields map[string]any) error {
	f.lastUpdate = fields
	f.updateCalls++
	stored := f.assets[asset.ID]
	if status, ok := fields["status"].(enums.AssetStatus); ok {
		stored.Status = status
	}
	if level, ok := fields["visibility"].(enums.VisibilityLevel); ok {
		stored.Visibility = level
	}
	if reason, ok := fields["rejection_reason"].(string); ok {
		stored.RejectionReason = &reason
	} else if _, present := fields["rejection_reason"]; present {
		stored.RejectionReason = nil
	}
	if role, ok := fields["allowed_role"].(*enums.UserRole); ok {
		stored.AllowedRole = role
	}
	return nil
}

func (f *fakeAssetRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.assets, id)
	return nil
}

func (f *fakeAssetRepo) Search(context.Context, *models.User, assets.SearchParams) ([]models.Asset, int64, error) {
	return nil, 0, nil
}

type fakeAuditRepo struct {
	created []*models.AuditRecord
	err     error
}

func (f *fakeAuditRepo) WithTx(*gorm.DB) audit.Repository { return f }

func (f *fakeAuditRepo) Create(_ context.Context, record *models.AuditRecord) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, record)
	return nil
}

func (f *fakeAuditRepo) Query(context.Context, audit.Filter, int, int) ([]models.AuditRecord, int64, error) {
	return nil, 0, nil
}

func (f *fakeAuditRepo) Aggregate(context.Context, string, audit.Filter) ([]audit.AggregateRow, error) {
	return nil, nil
}

func newFixture() (*Service, *fakeAssetRepo, *fakeAuditRepo) {
	assetRepo := newFakeAssetRepo()
	auditRepo := &fakeAuditRepo{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := NewService(fakeTxRunner{}, assetRepo, audit.NewService(auditRepo, logg, 100), nil, logg)
	return svc, assetRepo, auditRepo
}

func seed(repo *fakeAssetRepo, status enums.AssetStatus, channel enums.UploadChannel) *models.Asset {
	asset := &models.Asset{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Status:        status,
		UploadChannel: channel,
		Visibility:    enums.VisibilityUnset,
	}
	repo.assets[asset.ID] = asset
	return asset
}

func admin() *models.User {
	return &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin}
}

func TestSubmitMovesDraftIntoReview(t *testing.T) {
	svc, repo, auditRepo := newFixture()
	asset := seed(repo, enums.AssetStatusDraft, enums.UploadChannelReviewed)
	owner := &models.User{ID: asset.OwnerID, Role: enums.UserRoleCreator}

	updated, err := svc.Submit(context.Background(), owner, asset.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if updated.Status != enums.AssetStatusPendingReview {
		t.Fatalf("status = %s, want pending_review", updated.Status)
	}
	if len(auditRepo.created) != 1 || auditRepo.created[0].Action != enums.AuditActionSubmit {
		t.Fatalf("expected one submit audit record, got %+v", auditRepo.created)
	}
}

func TestSubmitByNonOwnerForbidden(t *testing.T) {
	svc, repo, _ := newFixture()
	asset := seed(repo, enums.AssetStatusDraft, enums.UploadChannelReviewed)

	_, err := svc.Submit(context.Background(), admin(), asset.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for non-owner, got %v", err)
	}
}

func TestSubmitPrivateChannelRejected(t *testing.T) {
	svc, repo, _ := newFixture()
	asset := seed(repo, enums.AssetStatusDraft, enums.UploadChannelPrivate)
	owner := &models.User{ID: asset.OwnerID, Role: enums.UserRoleCreator}

	_, err := svc.Submit(context.Background(), owner, asset.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for private channel, got %v", err)
	}
}

// Every (status, action) pair outside the two legal review transitions must
// fail with a state conflict.
func TestReviewTransitionLegality(t *testing.T) {
	statuses := []enums.AssetStatus{
		enums.AssetStatusDraft,
		enums.AssetStatusPendingReview,
		enums.AssetStatusApproved,
		enums.AssetStatusRejected,
	}
	for _, status := range statuses {
		for _, action := range []string{"approve", "reject"} {
			t.Run(string(status)+"/"+action, func(t *testing.T) {
				svc, repo, _ := newFixture()
				asset := seed(repo, status, enums.UploadChannelReviewed)

				var err error
				switch action {
				case "approve":
					_, err = svc.Approve(context.Background(), admin(), asset.ID, enums.VisibilityPublic, nil)
				case "reject":
					_, err = svc.Reject(context.Background(), admin(), asset.ID, "low resolution")
				}

				if status == enums.AssetStatusPendingReview {
					if err != nil {
						t.Fatalf("legal transition failed: %v", err)
					}
					return
				}
				typed := pkgerrors.As(err)
				if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
					t.Fatalf("expected STATE_CONFLICT from %s, got %v", status, err)
				}
				details, ok := typed.Details().(map[string]any)
				if !ok || details["current_status"] != status.String() {
					t.Fatalf("state conflict should carry current status, got %v", typed.Details())
				}
			})
		}
	}
}

func TestApproveByNonAdminForbidden(t *testing.T) {
	svc, repo, auditRepo := newFixture()
	asset := seed(repo, enums.AssetStatusPendingReview, enums.UploadChannelReviewed)

	specialist := &models.User{ID: uuid.New(), Role: enums.UserRoleSpecialist}
	_, err := svc.Approve(context.Background(), specialist, asset.ID, enums.VisibilityPublic, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if repo.updateCalls != 0 || len(auditRepo.created) != 0 {
		t.Fatalf("forbidden approve still wrote state")
	}
}

func TestApproveVisibilityValidation(t *testing.T) {
	svc, repo, _ := newFixture()
	asset := seed(repo, enums.AssetStatusPendingReview, enums.UploadChannelReviewed)
	role := enums.UserRoleSpecialist

	cases := []struct {
		name  string
		level enums.VisibilityLevel
		role  *enums.UserRole
	}{
		{"unset level", enums.VisibilityUnset, nil},
		{"unknown level", enums.VisibilityLevel("everyone"), nil},
		{"role_scoped without role", enums.VisibilityRoleScoped, nil},
		{"role on non-role_scoped", enums.VisibilityPublic, &role},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Approve(context.Background(), admin(), asset.ID, tc.level, tc.role)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
	if repo.updateCalls != 0 {
		t.Fatalf("invalid approval reached the repository")
	}
}

func TestApproveClearsRejectionReason(t *testing.T) {
	svc, repo, auditRepo := newFixture()
	asset := seed(repo, enums.AssetStatusPendingReview, enums.UploadChannelReviewed)
	reason := "previously rejected"
	asset.RejectionReason = &reason

	updated, err := svc.Approve(context.Background(), admin(), asset.ID, enums.VisibilityCompanyScoped, nil)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if updated.RejectionReason != nil {
		t.Fatalf("rejection reason survived approval: %q", *updated.RejectionReason)
	}
	if _, present := repo.lastUpdate["rejection_reason"]; !present {
		t.Fatalf("approval update did not clear rejection_reason")
	}
	if len(auditRepo.created) != 1 || auditRepo.created[0].Metadata["visibility"] != "company_scoped" {
		t.Fatalf("approve audit metadata missing visibility: %+v", auditRepo.created)
	}
}

func TestApproveRoleScopedCarriesRole(t *testing.T) {
	svc, repo, auditRepo := newFixture()
	asset := seed(repo, enums.AssetStatusPendingReview, enums.UploadChannelReviewed)
	role := enums.UserRoleSpecialist

	updated, err := svc.Approve(context.Background(), admin(), asset.ID, enums.VisibilityRoleScoped, &role)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if updated.AllowedRole == nil || *updated.AllowedRole != role {
		t.Fatalf("allowed role not applied: %v", updated.AllowedRole)
	}
	if auditRepo.created[0].Metadata["allowed_role"] != "specialist" {
		t.Fatalf("audit metadata missing allowed_role: %+v", auditRepo.created[0].Metadata)
	}
	if repo.lastUpdate["allowed_role"] != &role {
		t.Fatalf("allowed_role not part of the persisted update")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	svc, repo, auditRepo := newFixture()
	asset := seed(repo, enums.AssetStatusPendingReview, enums.UploadChannelReviewed)

	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := svc.Reject(context.Background(), admin(), asset.ID, reason)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected VALIDATION_ERROR for reason %q, got %v", reason, err)
		}
	}
	if repo.updateCalls != 0 || len(auditRepo.created) != 0 {
		t.Fatalf("blank-reason reject still wrote state")
	}
}

func TestRejectPersistsReason(t *testing.T) {
	svc, repo, auditRepo := newFixture()
	asset := seed(repo, enums.AssetStatusPendingReview, enums.UploadChannelReviewed)

	updated, err := svc.Reject(context.Background(), admin(), asset.ID, "  low resolution  ")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if updated.RejectionReason == nil || *updated.RejectionReason != "low resolution" {
		t.Fatalf("rejection reason not stored trimmed: %v", updated.RejectionReason)
	}
	if auditRepo.created[0].Metadata["reason"] != "low resolution" {
		t.Fatalf("reject audit metadata missing reason: %+v", auditRepo.created[0].Metadata)
	}
}

func TestChangeVisibilityApprovedOnly(t *testing.T) {
	for _, status := range []enums.AssetStatus{
		enums.AssetStatusDraft,
		enums.AssetStatusPendingReview,
		enums.AssetStatusRejected,
	} {
		svc, repo, _ := newFixture()
		asset := seed(repo, status, enums.UploadChannelReviewed)

		_, err := svc.ChangeVisibility(context.Background(), admin(), asset.ID, enums.VisibilityPublic, nil)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("expected STATE_CONFLICT from %s, got %v", status, err)
		}
	}
}

func TestChangeVisibilityAuditsPrevious(t *testing.T) {
	svc, repo, auditRepo := newFixture()
	asset := seed(repo, enums.AssetStatusApproved, enums.UploadChannelReviewed)
	asset.Visibility = enums.VisibilityPublic

	updated, err := svc.ChangeVisibility(context.Background(), admin(), asset.ID, enums.VisibilityAdminOnly, nil)
	if err != nil {
		t.Fatalf("visibility change failed: %v", err)
	}
	if updated.Status != enums.AssetStatusApproved {
		t.Fatalf("status changed during visibility edit: %s", updated.Status)
	}
	if updated.Visibility != enums.VisibilityAdminOnly {
		t.Fatalf("visibility not applied: %s", updated.Visibility)
	}
	meta := auditRepo.created[0].Metadata
	if meta["previous_visibility"] != "public" || meta["visibility"] != "admin_only" {
		t.Fatalf("visibility_change audit metadata incomplete: %+v", meta)
	}
}

func TestTransitionNotFoundAsset(t *testing.T) {
	svc, _, _ := newFixture()
	_, err := svc.Approve(context.Background(), admin(), uuid.New(), enums.VisibilityPublic, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestAuditFailurePropagates(t *testing.T) {
	svc, repo, auditRepo := newFixture()
	asset := seed(repo, enums.AssetStatusPendingReview, enums.UploadChannelReviewed)
	auditRepo.err = errors.New("ledger unavailable")

	_, err := svc.Approve(context.Background(), admin(), asset.ID, enums.VisibilityPublic, nil)
	if err == nil {
		t.Fatalf("expected approve to fail when the audit write fails")
	}
}
