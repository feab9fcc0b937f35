package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/circuithospitality/stockroom-sync/internal/domain/mapping"
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/persistence/models"
)

func setupMappingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.EntityMappingModel{})
	require.NoError(t, err)

	return db
}

func TestGormMappingRepository_InsertAndFind(t *testing.T) {
	repo := NewGormMappingRepository(setupMappingTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "event", "42", "7"))

	t.Run("forward lookup", func(t *testing.T) {
		got, err := repo.Find(ctx, "event", mapping.Forward, "42")
		require.NoError(t, err)
		assert.Equal(t, "7", got)
	})

	t.Run("reverse lookup", func(t *testing.T) {
		got, err := repo.Find(ctx, "event", mapping.Reverse, "7")
		require.NoError(t, err)
		assert.Equal(t, "42", got)
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		_, err := repo.Find(ctx, "event_type", mapping.Forward, "42")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormMappingRepository_Find_NotFound(t *testing.T) {
	repo := NewGormMappingRepository(setupMappingTestDB(t))

	_, err := repo.Find(context.Background(), "event", mapping.Forward, "999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormMappingRepository_Delete(t *testing.T) {
	repo := NewGormMappingRepository(setupMappingTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "event", "42", "7"))

	t.Run("delete by reverse key", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "event", mapping.Reverse, "7"))

		_, err := repo.Find(ctx, "event", mapping.Forward, "42")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("deleting a missing row is not an error", func(t *testing.T) {
		assert.NoError(t, repo.Delete(ctx, "event", mapping.Forward, "42"))
	})
}

func TestGormMappingRepository_ListByModel(t *testing.T) {
	repo := NewGormMappingRepository(setupMappingTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "event", "1", "10"))
	require.NoError(t, repo.Insert(ctx, "event", "2", "20"))
	require.NoError(t, repo.Insert(ctx, "club", "3", "30"))

	records, err := repo.ListByModel(ctx, "event")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].SourceID)
	assert.Equal(t, "10", records[0].TargetID)
	assert.Equal(t, "2", records[1].SourceID)
}

func TestGormMappingRepository_Find_StorageErrorPropagates(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	repo := NewGormMappingRepository(db)
	_, err = repo.Find(context.Background(), "event", mapping.Forward, "42")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}
