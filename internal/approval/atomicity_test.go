package approval

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/emiliorvera/brandvault-backend/internal/assets"
	"github.com/emiliorvera/brandvault-backend/internal/audit"
	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.Transaction(fn)
}

type failingAuditRepo struct {
	inner audit.Repository
	fail  bool
}

func (f *failingAuditRepo) WithTx(tx *gorm.DB) audit.Repository {
	return &failingAuditRepo{inner: f.inner.WithTx(tx), fail: f.fail}
}

func (f *failingAuditRepo) Create(ctx context.Context, record *models.AuditRecord) error {
	if f.fail {
		return errors.New("ledger unavailable")
	}
	return f.inner.Create(ctx, record)
}

func (f *failingAuditRepo) Query(ctx context.Context, filter audit.Filter, limit, offset int) ([]models.AuditRecord, int64, error) {
	return f.inner.Query(ctx, filter, limit, offset)
}

func (f *failingAuditRepo) Aggregate(ctx context.Context, groupExpr string, filter audit.Filter) ([]audit.AggregateRow, error) {
	return f.inner.Aggregate(ctx, groupExpr, filter)
}

// TestApproveIsAtomic drives the workflow against a real database and proves
// the asset update and the audit write commit or roll back as one unit.
func TestApproveIsAtomic(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "approval.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Asset{}, &models.AuditRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	asset := &models.Asset{
		OwnerID:        uuid.New(),
		Title:          "pending banner",
		Kind:           enums.AssetKindImage,
		UploadChannel:  enums.UploadChannelReviewed,
		Status:         enums.AssetStatusPendingReview,
		Visibility:     enums.VisibilityUnset,
		StorageLocator: "s3://bucket/banner.png",
	}
	if err := conn.Create(asset).Error; err != nil {
		t.Fatalf("failed to seed asset: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	auditRepo := &failingAuditRepo{inner: audit.NewRepository(conn), fail: true}
	svc := NewService(gormTxRunner{db: conn}, assets.NewRepository(conn),
		audit.NewService(auditRepo, logg, 100), nil, logg)
	reviewer := &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin}

	// Failing audit write rolls the whole transition back.
	if _, err := svc.Approve(context.Background(), reviewer, asset.ID, enums.VisibilityPublic, nil); err == nil {
		t.Fatalf("expected approve to fail while ledger is down")
	}
	var reloaded models.Asset
	if err := conn.First(&reloaded, "id = ?", asset.ID).Error; err != nil {
		t.Fatalf("failed to reload asset: %v", err)
	}
	if reloaded.Status != enums.AssetStatusPendingReview {
		t.Fatalf("status changed despite rolled-back transition: %s", reloaded.Status)
	}
	var auditCount int64
	if err := conn.Model(&models.AuditRecord{}).Count(&auditCount).Error; err != nil {
		t.Fatalf("failed to count audit records: %v", err)
	}
	if auditCount != 0 {
		t.Fatalf("audit record survived a rolled-back transition")
	}

	// With the ledger healthy the same call commits both writes.
	auditRepo.fail = false
	updated, err := svc.Approve(context.Background(), reviewer, asset.ID, enums.VisibilityPublic, nil)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if updated.Status != enums.AssetStatusApproved {
		t.Fatalf("status = %s, want approved", updated.Status)
	}
	if err := conn.Model(&models.AuditRecord{}).Count(&auditCount).Error; err != nil {
		t.Fatalf("failed to count audit records: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("expected exactly one audit record, got %d", auditCount)
	}

	// A second approve observes the committed state and loses cleanly.
	if _, err := svc.Approve(context.Background(), reviewer, asset.ID, enums.VisibilityPublic, nil); err == nil {
		t.Fatalf("expected second approve to fail on post-transition state")
	}
}

// TestConcurrentApproveSingleWinner races two reviewers on the same pending
// asset. The row lock plus the in-transaction status recheck guarantee
// exactly one transition commits; the loser sees the committed status and
// fails with STATE_CONFLICT.
func TestConcurrentApproveSingleWinner(t *testing.T) {
	// Immediate transactions serialize the two writers so the loser waits on
	// the winner's commit instead of failing with a busy error.
	dsn := filepath.Join(t.TempDir(), "race.db") + "?_txlock=immediate&_busy_timeout=5000"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Asset{}, &models.AuditRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	asset := &models.Asset{
		OwnerID:        uuid.New(),
		Title:          "contested banner",
		Kind:           enums.AssetKindImage,
		UploadChannel:  enums.UploadChannelReviewed,
		Status:         enums.AssetStatusPendingReview,
		Visibility:     enums.VisibilityUnset,
		StorageLocator: "s3://bucket/contested.png",
	}
	if err := conn.Create(asset).Error; err != nil {
		t.Fatalf("failed to seed asset: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := NewService(gormTxRunner{db: conn}, assets.NewRepository(conn),
		audit.NewService(audit.NewRepository(conn), logg, 100), nil, logg)
	reviewer := &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin}

	start := make(chan struct{})
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := svc.Approve(context.Background(), reviewer, asset.ID, enums.VisibilityPublic, nil)
			results <- err
		}()
	}
	close(start)

	var wins, conflicts int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			wins++
		default:
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
				t.Fatalf("losing approve returned unexpected error: %v", err)
			}
			conflicts++
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d, want exactly one of each", wins, conflicts)
	}

	var reloaded models.Asset
	if err := conn.First(&reloaded, "id = ?", asset.ID).Error; err != nil {
		t.Fatalf("failed to reload asset: %v", err)
	}
	if reloaded.Status != enums.AssetStatusApproved {
		t.Fatalf("status = %s, want approved", reloaded.Status)
	}
	var auditCount int64
	if err := conn.Model(&models.AuditRecord{}).Count(&auditCount).Error; err != nil {
		t.Fatalf("failed to count audit records: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("expected exactly one audit record, got %d", auditCount)
	}
}
