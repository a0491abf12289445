package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Simplici0/quotecalc/internal/db"
	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/logger"
	"github.com/Simplici0/quotecalc/internal/migrations"
	"github.com/Simplici0/quotecalc/internal/repository"
)

func TestRunIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	ctx := context.Background()
	store := kv.NewSQLite(database)

	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, store)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 3 {
				t.Fatalf("expected 3 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	repo := repository.New(store, logger.Nop())
	materials, err := repo.Materials(ctx)
	if err != nil {
		t.Fatalf("list materials: %v", err)
	}
	if len(materials) != 3 {
		t.Fatalf("expected 3 default materials, got %d", len(materials))
	}
	colors, err := repo.ColorsForMaterial(ctx, "PA12")
	if err != nil {
		t.Fatalf("colors: %v", err)
	}
	if len(colors) != 3 || colors[0].Color != "White" || colors[0].PricePerUnit != 150 {
		t.Fatalf("unexpected default colors: %+v", colors)
	}

	width, err := repo.LocalSetting(ctx, "sidebarWidth")
	if err != nil {
		t.Fatalf("local setting: %v", err)
	}
	if width != float64(defaultSidebarWidth) {
		t.Fatalf("sidebarWidth=%v, want %d", width, defaultSidebarWidth)
	}
}

func TestRunKeepsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	if err := store.Put(ctx, kv.KeyMaterials, []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	stats, err := Run(ctx, store)
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 2 {
		t.Fatalf("expected 2 inserts, got %d", stats.Inserts)
	}

	raw, _, err := store.Get(ctx, kv.KeyMaterials)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("materials overwritten: %s", raw)
	}
}
