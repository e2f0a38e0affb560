package shares

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
)

func newGrantDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "grants.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.ShareGrant{}))
	return conn
}

func TestRepositoryGrantLifecycle(t *testing.T) {
	db := newGrantDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	assetID := uuid.New()
	grantee := uuid.New()
	owner := uuid.New()

	has, err := repo.HasGrant(ctx, assetID, grantee)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.Create(ctx, &models.ShareGrant{
		AssetID:       assetID,
		GranteeUserID: grantee,
		CreatedBy:     owner,
	}))

	has, err = repo.HasGrant(ctx, assetID, grantee)
	require.NoError(t, err)
	assert.True(t, has)

	count, err := repo.CountByAsset(ctx, assetID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	grants, err := repo.ListByAsset(ctx, assetID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, grantee, grants[0].GranteeUserID)
	assert.Equal(t, owner, grants[0].CreatedBy)

	affected, err := repo.Delete(ctx, assetID, grantee)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.Delete(ctx, assetID, grantee)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestRepositoryRejectsDuplicateGrant(t *testing.T) {
	db := newGrantDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	grant := models.ShareGrant{
		AssetID:       uuid.New(),
		GranteeUserID: uuid.New(),
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, repo.Create(ctx, &grant))

	dup := models.ShareGrant{
		AssetID:       grant.AssetID,
		GranteeUserID: grant.GranteeUserID,
		CreatedBy:     grant.CreatedBy,
	}
	assert.Error(t, repo.Create(ctx, &dup))
}

func TestRepositoryScopesGrantsToAsset(t *testing.T) {
	db := newGrantDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	grantee := uuid.New()
	assetA := uuid.New()
	assetB := uuid.New()

	require.NoError(t, repo.Create(ctx, &models.ShareGrant{
		AssetID:       assetA,
		GranteeUserID: grantee,
		CreatedBy:     uuid.New(),
	}))

	has, err := repo.HasGrant(ctx, assetB, grantee)
	require.NoError(t, err)
	assert.False(t, has, "grant on one asset must not leak onto another")
}
