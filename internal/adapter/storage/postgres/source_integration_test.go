//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

// setupDB connects to DATABASE_URL when set (CI), otherwise starts a
// throwaway postgres container.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("sigec_test"),
			tcpostgres.WithUsername("sigec"),
			tcpostgres.WithPassword("sigec_test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		testcontainers.CleanupContainer(t, container)
		require.NoError(t, err)

		url, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	db, err := NewConnection(Config{URL: url}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, RunMigrations(db))
	require.NoError(t, db.Exec("DELETE FROM documents").Error)
	return db
}

func TestSource_Integration(t *testing.T) {
	db := setupDB(t)
	src := NewSource(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, src.Upsert(ctx,
		domain.RawDocument{Collection: domain.CollectionUnits, ID: "u1", Fields: map[string]interface{}{
			"name": "Kiosk 1", "locationId": "l1", "metrics": map[string]interface{}{"totalSessions": 12},
		}},
		domain.RawDocument{Collection: domain.CollectionUnits, ID: "u2", Fields: map[string]interface{}{
			"name": "Kiosk 2", "locationId": "l2",
		}},
		domain.RawDocument{Collection: domain.CollectionAppChargingEvents, ID: "e1", Fields: map[string]interface{}{
			"sessionId": "s1", "batteryLevel": 40,
		}},
	))

	t.Run("FetchAll is scoped to the collection", func(t *testing.T) {
		docs, err := src.FetchAll(ctx, domain.CollectionUnits)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "u1", docs[0].ID)
		assert.Equal(t, "Kiosk 1", docs[0].Fields["name"])
	})

	t.Run("FetchWhere on a top-level field", func(t *testing.T) {
		docs, err := src.FetchWhere(ctx, domain.CollectionUnits, "locationId", "l2")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "u2", docs[0].ID)
	})

	t.Run("FetchWhere on a nested numeric field", func(t *testing.T) {
		docs, err := src.FetchWhere(ctx, domain.CollectionUnits, "metrics.totalSessions", 12)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "u1", docs[0].ID)
	})

	t.Run("Upsert replaces and Purge clears", func(t *testing.T) {
		require.NoError(t, src.Upsert(ctx, domain.RawDocument{
			Collection: domain.CollectionUnits, ID: "u2", Fields: map[string]interface{}{"name": "Kiosk 2b"},
		}))
		docs, err := src.FetchWhere(ctx, domain.CollectionUnits, "name", "Kiosk 2b")
		require.NoError(t, err)
		require.Len(t, docs, 1)

		require.NoError(t, src.Purge(ctx, domain.CollectionUnits))
		docs, err = src.FetchAll(ctx, domain.CollectionUnits)
		require.NoError(t, err)
		assert.Empty(t, docs)

		events, err := src.FetchAll(ctx, domain.CollectionAppChargingEvents)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}
