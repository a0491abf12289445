package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/metrics"
	"github.com/Simplici0/quotecalc/internal/model"
)

var emptyArray = []byte("[]")

func marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

// SnapshotQuotes returns the stored quotes document as persisted, without
// read repairs. A missing or corrupt document snapshots as an empty list,
// which is what Quotes would read.
func (r *Repository) SnapshotQuotes(ctx context.Context) ([]byte, error) {
	raw, ok, err := r.store.Get(ctx, kv.KeyQuotes)
	if err != nil {
		return nil, fmt.Errorf("snapshot quotes: %w", err)
	}
	if !ok {
		return append([]byte(nil), emptyArray...), nil
	}
	var quotes []model.Quote
	if err := json.Unmarshal(raw, &quotes); err != nil {
		r.log.Warn("stored quotes are corrupt, snapshotting an empty list", "err", err)
		metrics.CorruptReads.WithLabelValues(kv.KeyQuotes).Inc()
		return append([]byte(nil), emptyArray...), nil
	}
	return raw, nil
}

// RestoreQuotes overwrites the quotes document with a snapshot taken by
// SnapshotQuotes.
func (r *Repository) RestoreQuotes(ctx context.Context, snapshot []byte) error {
	if !json.Valid(snapshot) {
		return fmt.Errorf("restore quotes: snapshot is not valid JSON")
	}
	if err := r.putRaw(ctx, map[string][]byte{kv.KeyQuotes: snapshot}); err != nil {
		return fmt.Errorf("restore quotes: %w", err)
	}
	return nil
}

// Replacement holds whole collections to overwrite. Nil fields are left
// untouched; an empty non-nil slice clears the collection.
type Replacement struct {
	Materials     []model.Material
	Clients       []model.Client
	OptionPresets []model.OptionPreset
	Tags          []model.Tag
	Settings      model.Settings
	Quotes        []model.Quote
}

func (rp Replacement) docs() map[string]any {
	docs := make(map[string]any)
	if rp.Materials != nil {
		docs[kv.KeyMaterials] = rp.Materials
	}
	if rp.Clients != nil {
		docs[kv.KeyClients] = rp.Clients
	}
	if rp.OptionPresets != nil {
		docs[kv.KeyOptionPresets] = rp.OptionPresets
	}
	if rp.Tags != nil {
		docs[kv.KeyTags] = rp.Tags
	}
	if rp.Settings != nil {
		docs[kv.KeySettings] = rp.Settings.WithoutLocalKeys()
	}
	if rp.Quotes != nil {
		docs[kv.KeyQuotes] = rp.Quotes
	}
	return docs
}

// ReplaceCollections overwrites every present collection in one batch.
// Local settings are never touched.
func (r *Repository) ReplaceCollections(ctx context.Context, rp Replacement) error {
	docs := rp.docs()
	if len(docs) == 0 {
		return nil
	}
	if err := r.writeBatch(ctx, docs); err != nil {
		return fmt.Errorf("replace collections: %w", err)
	}
	return nil
}
