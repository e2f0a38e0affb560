package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/types"
)

func newLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.AuditRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	// Mirror the production trigger so raw statements that bypass the ORM are
	// rejected by the store itself.
	stmts := []string{
		`CREATE TRIGGER audit_records_no_update BEFORE UPDATE ON audit_records
		 BEGIN SELECT RAISE(ABORT, 'audit_records are append-only'); END;`,
		`CREATE TRIGGER audit_records_no_delete BEFORE DELETE ON audit_records
		 BEGIN SELECT RAISE(ABORT, 'audit_records are append-only'); END;`,
	}
	for _, stmt := range stmts {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create trigger: %v", err)
		}
	}
	return conn
}

func seedRecord(t *testing.T, db *gorm.DB, action enums.AuditAction) *models.AuditRecord {
	t.Helper()
	record := &models.AuditRecord{
		ActorID:      uuid.New(),
		Action:       action,
		ResourceType: "asset",
		ResourceID:   uuid.New(),
		Metadata:     types.JSONMap{"visibility": "public"},
	}
	if err := NewRepository(db).Create(context.Background(), record); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
	return record
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) models.AuditRecord {
	t.Helper()
	var record models.AuditRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload record %s: %v", id, err)
	}
	return record
}

func TestRepositoryCreateAndQuery(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	actor := uuid.New()
	for i := 0; i < 3; i++ {
		record := &models.AuditRecord{
			ActorID:      actor,
			Action:       enums.AuditActionApprove,
			ResourceType: "asset",
			ResourceID:   uuid.New(),
			Metadata:     types.JSONMap{},
		}
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	seedRecord(t, db, enums.AuditActionReject)

	action := enums.AuditActionApprove
	records, total, err := repo.Query(ctx, Filter{ActorID: &actor, Action: &action}, 10, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if total != 3 || len(records) != 3 {
		t.Fatalf("expected 3 approve records for actor, got total=%d len=%d", total, len(records))
	}

	records, total, err = repo.Query(ctx, Filter{}, 2, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if total != 4 || len(records) != 2 {
		t.Fatalf("expected total=4 with page of 2, got total=%d len=%d", total, len(records))
	}
}

func TestRepositoryQueryDateRange(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedRecord(t, db, enums.AuditActionSubmit)

	future := time.Now().Add(time.Hour)
	_, total, err := repo.Query(ctx, Filter{StartDate: &future}, 10, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no records after future start date, got %d", total)
	}

	past := time.Now().Add(-time.Hour)
	_, total, err = repo.Query(ctx, Filter{StartDate: &past, EndDate: &future}, 10, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 record inside range, got %d", total)
	}
}

func TestRepositoryAggregateByAction(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedRecord(t, db, enums.AuditActionApprove)
	seedRecord(t, db, enums.AuditActionApprove)
	seedRecord(t, db, enums.AuditActionReject)

	rows, err := repo.Aggregate(ctx, "action", Filter{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	counts := map[string]int64{}
	for _, row := range rows {
		counts[row.Bucket] = row.Count
	}
	if counts["approve"] != 2 || counts["reject"] != 1 {
		t.Fatalf("unexpected buckets: %+v", counts)
	}
}

func TestLedgerRejectsORMUpdate(t *testing.T) {
	db := newLedgerDB(t)
	record := seedRecord(t, db, enums.AuditActionApprove)
	before := reload(t, db, record.ID)

	err := db.Model(&models.AuditRecord{ID: record.ID}).
		Update("resource_type", "tampered").Error
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeImmutable {
		t.Fatalf("expected IMMUTABLE_VIOLATION, got %v", err)
	}

	after := reload(t, db, record.ID)
	if after.ResourceType != before.ResourceType || after.ActorID != before.ActorID {
		t.Fatalf("record changed despite rejected update: %+v", after)
	}
}

func TestLedgerRejectsORMDelete(t *testing.T) {
	db := newLedgerDB(t)
	record := seedRecord(t, db, enums.AuditActionReject)

	err := db.Delete(&models.AuditRecord{ID: record.ID}).Error
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeImmutable {
		t.Fatalf("expected IMMUTABLE_VIOLATION, got %v", err)
	}

	reload(t, db, record.ID)
}

func TestLedgerUpsertSemantics(t *testing.T) {
	db := newLedgerDB(t)

	// Save of a brand-new record routes through the create path and succeeds.
	fresh := &models.AuditRecord{
		ActorID:      uuid.New(),
		Action:       enums.AuditActionSubmit,
		ResourceType: "asset",
		ResourceID:   uuid.New(),
		Metadata:     types.JSONMap{},
	}
	if err := db.Save(fresh).Error; err != nil {
		t.Fatalf("save of new record failed: %v", err)
	}

	// Save against an existing key is an update attempt and is rejected.
	fresh.ResourceType = "tampered"
	err := db.Save(fresh).Error
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeImmutable {
		t.Fatalf("expected IMMUTABLE_VIOLATION on save of existing record, got %v", err)
	}

	stored := reload(t, db, fresh.ID)
	if stored.ResourceType != "asset" {
		t.Fatalf("record changed despite rejected save: %q", stored.ResourceType)
	}

	// Save with a preset key that is not stored yet is still a create: the
	// update pass touches zero rows and GORM falls back to the insert.
	preset := &models.AuditRecord{
		ID:           uuid.New(),
		ActorID:      uuid.New(),
		Action:       enums.AuditActionApprove,
		ResourceType: "asset",
		ResourceID:   uuid.New(),
		Metadata:     types.JSONMap{},
	}
	if err := db.Save(preset).Error; err != nil {
		t.Fatalf("save of record with unseen preset id failed: %v", err)
	}
	inserted := reload(t, db, preset.ID)
	if inserted.Action != enums.AuditActionApprove || inserted.ActorID != preset.ActorID {
		t.Fatalf("preset-id save persisted wrong content: %+v", inserted)
	}

	// Once persisted, the same key is locked down like any other record.
	preset.ResourceType = "tampered"
	err = db.Save(preset).Error
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeImmutable {
		t.Fatalf("expected IMMUTABLE_VIOLATION on resave of preset-id record, got %v", err)
	}
	if again := reload(t, db, preset.ID); again.ResourceType != "asset" {
		t.Fatalf("record changed despite rejected resave: %q", again.ResourceType)
	}
}

func TestLedgerStoreRejectsRawMutation(t *testing.T) {
	db := newLedgerDB(t)
	record := seedRecord(t, db, enums.AuditActionVisibilityChange)
	before := reload(t, db, record.ID)

	if err := db.Exec("UPDATE audit_records SET resource_type = 'tampered' WHERE id = ?", record.ID).Error; err == nil {
		t.Fatalf("raw update slipped past the store trigger")
	}
	if err := db.Exec("DELETE FROM audit_records WHERE id = ?", record.ID).Error; err == nil {
		t.Fatalf("raw delete slipped past the store trigger")
	}

	after := reload(t, db, record.ID)
	if after.ResourceType != before.ResourceType || !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("record changed despite trigger: %+v", after)
	}
}
