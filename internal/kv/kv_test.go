package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/quotecalc/internal/db"
	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/migrations"
)

func newSQLiteStore(t *testing.T) *kv.SQLite {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "kv-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.Up(database))
	return kv.NewSQLite(database)
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) kv.Store{
		"memory": func(*testing.T) kv.Store { return kv.NewMemory() },
		"sqlite": func(t *testing.T) kv.Store { return newSQLiteStore(t) },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			_, ok, err := store.Get(ctx, kv.KeyMaterials)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Put(ctx, kv.KeyMaterials, []byte(`[{"id":"mat_1"}]`)))
			require.NoError(t, store.Put(ctx, kv.KeyMaterials, []byte(`[]`)))
			value, ok, err := store.Get(ctx, kv.KeyMaterials)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[]`, string(value))

			require.NoError(t, store.PutBatch(ctx, map[string][]byte{
				kv.KeyClients: []byte(`[{"id":"cli_1"}]`),
				kv.KeyTags:    []byte(`[]`),
			}))
			value, ok, err = store.Get(ctx, kv.KeyClients)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `[{"id":"cli_1"}]`, string(value))

			require.NoError(t, store.Delete(ctx, kv.KeyClients))
			_, ok, err = store.Get(ctx, kv.KeyClients)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Put(ctx, "k", []byte("abc")))

	value, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	value[0] = 'x'

	again, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "migrate-test.db"))
	require.NoError(t, err)
	defer database.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, migrations.Up(database), "iteration %d", i)
	}
}
