package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/model"
)

const defaultSidebarWidth = 280

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

func defaultMaterials() []model.Material {
	return []model.Material{
		{ID: model.NewID(model.PrefixMaterial), Name: "PA12", Color: "White", PricePerUnit: 150},
		{ID: model.NewID(model.PrefixMaterial), Name: "PA12", Color: "Grey", PricePerUnit: 180},
		{ID: model.NewID(model.PrefixMaterial), Name: "PA12", Color: "Black", PricePerUnit: 180},
	}
}

// Run writes first-start defaults for every document that does not exist yet,
// all in one batch. Existing documents are never touched, even when empty.
// It writes to the store directly so the mirror is not triggered.
func Run(ctx context.Context, store kv.Store) (Stats, error) {
	stats := Stats{}
	batch := map[string][]byte{}

	if err := ensure(ctx, store, kv.KeyMaterials, defaultMaterials(), batch, &stats); err != nil {
		return Stats{}, err
	}
	if err := ensure(ctx, store, kv.KeySettings, model.Settings{"sidebarCollapsed": false}, batch, &stats); err != nil {
		return Stats{}, err
	}
	if err := ensure(ctx, store, kv.KeyLocalSettings, model.LocalSettings{"sidebarWidth": defaultSidebarWidth}, batch, &stats); err != nil {
		return Stats{}, err
	}

	if len(batch) == 0 {
		return stats, nil
	}
	if err := store.PutBatch(ctx, batch); err != nil {
		return Stats{}, fmt.Errorf("write seed documents: %w", err)
	}
	return stats, nil
}

func ensure(ctx context.Context, store kv.Store, key string, value any, batch map[string][]byte, stats *Stats) error {
	_, exists, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("check %s existence: %w", key, err)
	}
	if exists {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode default %s: %w", key, err)
	}
	batch[key] = raw
	stats.Inserts++
	return nil
}
