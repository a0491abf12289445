package repository

import (
	"context"
	"fmt"

	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/model"
)

var (
	materials = collection[model.Material]{
		key:    kv.KeyMaterials,
		prefix: model.PrefixMaterial,
		id:     func(m *model.Material) *string { return &m.ID },
	}
	clients = collection[model.Client]{
		key:    kv.KeyClients,
		prefix: model.PrefixClient,
		id:     func(c *model.Client) *string { return &c.ID },
	}
	optionPresets = collection[model.OptionPreset]{
		key:    kv.KeyOptionPresets,
		prefix: model.PrefixPreset,
		id:     func(p *model.OptionPreset) *string { return &p.ID },
	}
	tags = collection[model.Tag]{
		key:    kv.KeyTags,
		prefix: model.PrefixTag,
		id:     func(t *model.Tag) *string { return &t.ID },
	}
)

/* Materials */

// Materials lists the material catalog in stored order.
func (r *Repository) Materials(ctx context.Context) ([]model.Material, error) {
	return materials.list(ctx, r)
}

// Material returns the material with id, or nil.
func (r *Repository) Material(ctx context.Context, id string) (*model.Material, error) {
	return materials.get(ctx, r, id)
}

// SaveMaterial inserts or replaces m, appending new records.
func (r *Repository) SaveMaterial(ctx context.Context, m *model.Material) error {
	return materials.save(ctx, r, m)
}

// DeleteMaterial removes the material. Parts that use it keep a dangling id.
func (r *Repository) DeleteMaterial(ctx context.Context, id string) error {
	return materials.delete(ctx, r, id)
}

// MaterialNames returns distinct material names in first-seen order.
func (r *Repository) MaterialNames(ctx context.Context) ([]string, error) {
	items, err := r.Materials(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(items))
	names := make([]string, 0, len(items))
	for _, m := range items {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		names = append(names, m.Name)
	}
	return names, nil
}

// ColorsForMaterial returns every material (one per color) sharing name.
func (r *Repository) ColorsForMaterial(ctx context.Context, name string) ([]model.Material, error) {
	items, err := r.Materials(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Material, 0)
	for _, m := range items {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out, nil
}

/* Clients */

// Clients lists the client catalog.
func (r *Repository) Clients(ctx context.Context) ([]model.Client, error) {
	return clients.list(ctx, r)
}

// Client returns the client with id, or nil.
func (r *Repository) Client(ctx context.Context, id string) (*model.Client, error) {
	return clients.get(ctx, r, id)
}

// SaveClient inserts or replaces c.
func (r *Repository) SaveClient(ctx context.Context, c *model.Client) error {
	return clients.save(ctx, r, c)
}

// DeleteClient removes the client; quotes pointing at it price with no discount.
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	return clients.delete(ctx, r, id)
}

/* Option presets */

// OptionPresets lists the option preset catalog.
func (r *Repository) OptionPresets(ctx context.Context) ([]model.OptionPreset, error) {
	return optionPresets.list(ctx, r)
}

// OptionPreset returns the preset with id, or nil.
func (r *Repository) OptionPreset(ctx context.Context, id string) (*model.OptionPreset, error) {
	return optionPresets.get(ctx, r, id)
}

// SaveOptionPreset inserts or replaces p.
func (r *Repository) SaveOptionPreset(ctx context.Context, p *model.OptionPreset) error {
	return optionPresets.save(ctx, r, p)
}

// DeleteOptionPreset removes the preset. Options copied from it are unchanged.
func (r *Repository) DeleteOptionPreset(ctx context.Context, id string) error {
	return optionPresets.delete(ctx, r, id)
}

/* Tags */

// Tags lists the tag catalog.
func (r *Repository) Tags(ctx context.Context) ([]model.Tag, error) {
	return tags.list(ctx, r)
}

// Tag returns the tag with id, or nil.
func (r *Repository) Tag(ctx context.Context, id string) (*model.Tag, error) {
	return tags.get(ctx, r, id)
}

// SaveTag inserts or replaces t.
func (r *Repository) SaveTag(ctx context.Context, t *model.Tag) error {
	return tags.save(ctx, r, t)
}

// DeleteTag removes the tag and detaches it from every quote in one batch.
func (r *Repository) DeleteTag(ctx context.Context, id string) error {
	tagList, err := r.Tags(ctx)
	if err != nil {
		return err
	}
	tagList, _ = tags.remove(tagList, id)

	quoteList, err := quotes.list(ctx, r)
	if err != nil {
		return err
	}
	detached := false
	for i := range quoteList {
		if quoteList[i].TagID != nil && *quoteList[i].TagID == id {
			quoteList[i].TagID = nil
			detached = true
		}
	}

	docs := map[string]any{kv.KeyTags: tagList}
	if detached {
		docs[kv.KeyQuotes] = quoteList
	}
	if err := r.writeBatch(ctx, docs); err != nil {
		return fmt.Errorf("delete tag %s: %w", id, err)
	}
	return nil
}
