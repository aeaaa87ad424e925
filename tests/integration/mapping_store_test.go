package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/persistence"
)

// These tests run against a real PostgreSQL instance because the store's
// conditional ON CONFLICT update is the thing under test.

func TestEntityMappingStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	store := persistence.NewGormEntityMappingStore(tdb.DB)
	ctx := context.Background()

	t.Run("upsert then batch load", func(t *testing.T) {
		tenantID := uuid.New()

		a := mustMapping(t)(mapping.NewAutoMapping(tenantID, mapping.KindManufacturer, "101", "mf-a"))
		b := mustMapping(t)(mapping.NewAutoMapping(tenantID, mapping.KindManufacturer, "102", "mf-b"))
		require.NoError(t, store.UpsertBatch(ctx, []*mapping.EntityMapping{a, b}))

		lookup, err := store.GetBatch(ctx, tenantID, mapping.KindManufacturer, []string{"101", "102", "103"})
		require.NoError(t, err)
		require.Len(t, lookup, 2)
		assert.Equal(t, "mf-a", lookup["101"].DestinationID)
		assert.Equal(t, "mf-b", lookup["102"].DestinationID)
	})

	t.Run("manual row survives auto upsert", func(t *testing.T) {
		tenantID := uuid.New()

		manual := mustMapping(t)(mapping.NewManualMapping(tenantID, mapping.KindUnit, "7", "unit-pinned"))
		require.NoError(t, store.UpsertBatch(ctx, []*mapping.EntityMapping{manual}))

		auto := mustMapping(t)(mapping.NewAutoMapping(tenantID, mapping.KindUnit, "7", "unit-auto"))
		require.NoError(t, store.UpsertBatch(ctx, []*mapping.EntityMapping{auto}))

		lookup, err := store.GetBatch(ctx, tenantID, mapping.KindUnit, []string{"7"})
		require.NoError(t, err)
		require.Len(t, lookup, 1)
		assert.Equal(t, "unit-pinned", lookup["7"].DestinationID)
		assert.Equal(t, mapping.TypeManual, lookup["7"].MappingType)
	})

	t.Run("manual upsert replaces auto row", func(t *testing.T) {
		tenantID := uuid.New()

		auto := mustMapping(t)(mapping.NewAutoMapping(tenantID, mapping.KindCategory, "40", "cat-auto"))
		require.NoError(t, store.UpsertBatch(ctx, []*mapping.EntityMapping{auto}))

		manual := mustMapping(t)(mapping.NewManualMapping(tenantID, mapping.KindCategory, "40", "cat-pinned"))
		require.NoError(t, store.UpsertBatch(ctx, []*mapping.EntityMapping{manual}))

		lookup, err := store.GetBatch(ctx, tenantID, mapping.KindCategory, []string{"40"})
		require.NoError(t, err)
		assert.Equal(t, "cat-pinned", lookup["40"].DestinationID)
		assert.Equal(t, mapping.TypeManual, lookup["40"].MappingType)
	})

	t.Run("orphan and reactivate lifecycle", func(t *testing.T) {
		tenantID := uuid.New()

		records := []*mapping.EntityMapping{
			mustMapping(t)(mapping.NewAutoMapping(tenantID, mapping.KindProperty, "1", "p-1")),
			mustMapping(t)(mapping.NewAutoMapping(tenantID, mapping.KindProperty, "2", "p-2")),
			mustMapping(t)(mapping.NewAutoMapping(tenantID, mapping.KindProperty, "3", "p-3")),
		}
		require.NoError(t, store.UpsertBatch(ctx, records))

		// "2" disappeared from the latest full fetch
		require.NoError(t, store.MarkOrphaned(ctx, tenantID, mapping.KindProperty, []string{"2"}))

		active, err := store.ActiveSourceIDs(ctx, tenantID, mapping.KindProperty)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"1", "3"}, active)

		// It reappears on the next run
		require.NoError(t, store.Reactivate(ctx, tenantID, mapping.KindProperty, []string{"2"}))

		active, err = store.ActiveSourceIDs(ctx, tenantID, mapping.KindProperty)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"1", "2", "3"}, active)
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		tenantA := uuid.New()
		tenantB := uuid.New()

		require.NoError(t, store.UpsertBatch(ctx, []*mapping.EntityMapping{
			mustMapping(t)(mapping.NewAutoMapping(tenantA, mapping.KindMedia, "hash-1", "media-a")),
			mustMapping(t)(mapping.NewAutoMapping(tenantB, mapping.KindMedia, "hash-1", "media-b")),
		}))

		lookupA, err := store.GetBatch(ctx, tenantA, mapping.KindMedia, []string{"hash-1"})
		require.NoError(t, err)
		assert.Equal(t, "media-a", lookupA["hash-1"].DestinationID)

		lookupB, err := store.GetBatch(ctx, tenantB, mapping.KindMedia, []string{"hash-1"})
		require.NoError(t, err)
		assert.Equal(t, "media-b", lookupB["hash-1"].DestinationID)
	})
}

func mustMapping(t *testing.T) func(m *mapping.EntityMapping, err error) *mapping.EntityMapping {
	t.Helper()
	return func(m *mapping.EntityMapping, err error) *mapping.EntityMapping {
		t.Helper()
		require.NoError(t, err)
		return m
	}
}
