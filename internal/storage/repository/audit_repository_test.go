package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"waconsole/internal/app/config"
	"waconsole/internal/domain"
	"waconsole/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLocation = "XCrKRkp9vLhW6P6tXIkK"

func newTestRepository(t *testing.T) *AuditRepository {
	t.Helper()

	db, err := storage.New(config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "audit_test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return NewAuditRepository(db.DB)
}

func TestAuditRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t.Run("stores and lists entries newest first", func(t *testing.T) {
		first := domain.NewAuditEntry(testLocation, domain.AuditCreate, "infragrowth-whatsapp1", "alias=Ventas")
		first.CreatedAt = time.Now().Add(-time.Hour)
		second := domain.NewAuditEntry(testLocation, domain.AuditDelete, "infragrowth-whatsapp1", "")

		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		entries, err := repo.Recent(ctx, testLocation, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, domain.AuditDelete, entries[0].Action)
		assert.Equal(t, domain.AuditCreate, entries[1].Action)
		assert.Equal(t, "alias=Ventas", entries[1].Detail)
	})

	t.Run("filters by tenant", func(t *testing.T) {
		entry := domain.NewAuditEntry("otherTenant", domain.AuditTurnOff, "infragrowth-whatsapp2", "")
		require.NoError(t, repo.Create(ctx, entry))

		entries, err := repo.Recent(ctx, "otherTenant", 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditTurnOff, entries[0].Action)
	})

	t.Run("respects the limit", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, repo.Create(ctx, domain.NewAuditEntry("limitTenant", domain.AuditEdit, "infragrowth-whatsapp3", "")))
		}

		entries, err := repo.Recent(ctx, "limitTenant", 3)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
}
