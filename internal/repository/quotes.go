package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/model"
)

var quotes = collection[model.Quote]{
	key:     kv.KeyQuotes,
	prefix:  model.PrefixQuote,
	prepend: true,
	id:      func(q *model.Quote) *string { return &q.ID },
}

// Quotes returns every quote, newest first, repaired for older data shapes.
func (r *Repository) Quotes(ctx context.Context) ([]model.Quote, error) {
	items, err := quotes.list(ctx, r)
	if err != nil {
		return nil, err
	}
	for i := range items {
		repairQuote(&items[i])
	}
	return items, nil
}

// Quote returns the repaired quote or nil.
func (r *Repository) Quote(ctx context.Context, id string) (*model.Quote, error) {
	q, err := quotes.get(ctx, r, id)
	if err != nil || q == nil {
		return q, err
	}
	repairQuote(q)
	return q, nil
}

// SaveQuote upserts the quote and bumps UpdatedAt. New quotes are prepended.
func (r *Repository) SaveQuote(ctx context.Context, q *model.Quote) error {
	now := r.now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	return quotes.save(ctx, r, q)
}

// DeleteQuote removes one quote. A missing id is not an error.
func (r *Repository) DeleteQuote(ctx context.Context, id string) error {
	return quotes.delete(ctx, r, id)
}

// DeleteQuotes removes every listed quote in one write and reports how many
// were found.
func (r *Repository) DeleteQuotes(ctx context.Context, ids []string) (int, error) {
	items, err := quotes.list(ctx, r)
	if err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]model.Quote, 0, len(items))
	for _, q := range items {
		if !drop[q.ID] {
			kept = append(kept, q)
		}
	}
	removed := len(items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := r.write(ctx, kv.KeyQuotes, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// SearchQuotes filters quotes by a case-insensitive name fragment and, when
// tagID is not empty, by tag.
func (r *Repository) SearchQuotes(ctx context.Context, query, tagID string) ([]model.Quote, error) {
	items, err := r.Quotes(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Quote, 0, len(items))
	for _, q := range items {
		if query != "" && !strings.Contains(strings.ToLower(q.Name), query) {
			continue
		}
		if tagID != "" && model.Deref(q.TagID) != tagID {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// CreateQuote stores a new quote with a single empty view. An empty name is
// replaced with a numbered default.
func (r *Repository) CreateQuote(ctx context.Context, name string) (*model.Quote, error) {
	items, err := quotes.list(ctx, r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Quote %02d", len(items)+1)
	}

	now := r.now()
	q := model.Quote{
		ID:        model.NewID(model.PrefixQuote),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Views:     []model.View{newView(defaultViewName(0))},
	}

	items = append([]model.Quote{q}, items...)
	if err := r.write(ctx, kv.KeyQuotes, items); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	return &q, nil
}

// DuplicateQuote stores a deep copy of the quote as a new record.
func (r *Repository) DuplicateQuote(ctx context.Context, id string) (*model.Quote, error) {
	items, err := quotes.list(ctx, r)
	if err != nil {
		return nil, err
	}
	i := quotes.index(items, id)
	if i < 0 {
		return nil, fmt.Errorf("duplicate quote %s: %w", id, ErrNotFound)
	}

	src := items[i]
	repairQuote(&src)
	cp := src.Clone(r.now())

	items = append([]model.Quote{cp}, items...)
	if err := r.write(ctx, kv.KeyQuotes, items); err != nil {
		return nil, fmt.Errorf("duplicate quote %s: %w", id, err)
	}
	return &cp, nil
}

// mutateQuote loads the stored quotes, repairs and mutates the target quote
// only, and writes the collection back.
func (r *Repository) mutateQuote(ctx context.Context, id string, fn func(q *model.Quote) error) (*model.Quote, error) {
	items, err := quotes.list(ctx, r)
	if err != nil {
		return nil, err
	}
	i := quotes.index(items, id)
	if i < 0 {
		return nil, fmt.Errorf("quote %s: %w", id, ErrNotFound)
	}

	q := &items[i]
	repairQuote(q)
	if err := fn(q); err != nil {
		return nil, err
	}
	q.UpdatedAt = r.now()

	if err := r.write(ctx, kv.KeyQuotes, items); err != nil {
		return nil, err
	}
	out := *q
	return &out, nil
}

// RenameQuote sets the quote name.
func (r *Repository) RenameQuote(ctx context.Context, id, name string) (*model.Quote, error) {
	return r.mutateQuote(ctx, id, func(q *model.Quote) error {
		q.Name = name
		return nil
	})
}

// SetQuoteTag attaches a tag, or detaches it when tagID is empty.
func (r *Repository) SetQuoteTag(ctx context.Context, id, tagID string) (*model.Quote, error) {
	return r.mutateQuote(ctx, id, func(q *model.Quote) error {
		q.TagID = model.StringPtr(tagID)
		return nil
	})
}

// SetQuoteClient selects a catalog client and drops any custom client. An
// empty clientID clears both.
func (r *Repository) SetQuoteClient(ctx context.Context, id, clientID string) (*model.Quote, error) {
	return r.mutateQuote(ctx, id, func(q *model.Quote) error {
		q.ClientID = model.StringPtr(clientID)
		q.CustomClient = nil
		return nil
	})
}

// SetCustomClient sets an ad-hoc client and drops the catalog client.
func (r *Repository) SetCustomClient(ctx context.Context, id string, cc model.CustomClient) (*model.Quote, error) {
	return r.mutateQuote(ctx, id, func(q *model.Quote) error {
		q.CustomClient = &cc
		q.ClientID = nil
		return nil
	})
}

/* Views */

// AddView appends a copy of the quote's last view.
func (r *Repository) AddView(ctx context.Context, quoteID string) (*model.View, error) {
	var added model.View
	_, err := r.mutateQuote(ctx, quoteID, func(q *model.Quote) error {
		if len(q.Views) == 0 {
			added = newView(defaultViewName(0))
		} else {
			added = q.Views[len(q.Views)-1].Clone()
		}
		q.Views = append(q.Views, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// DuplicateView appends a deep copy of the view to its quote.
func (r *Repository) DuplicateView(ctx context.Context, quoteID, viewID string) (*model.View, error) {
	var added model.View
	_, err := r.mutateQuote(ctx, quoteID, func(q *model.Quote) error {
		v := q.View(viewID)
		if v == nil {
			return fmt.Errorf("view %s: %w", viewID, ErrNotFound)
		}
		added = v.Clone()
		q.Views = append(q.Views, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// RemoveView deletes a view unless it is the quote's last one.
func (r *Repository) RemoveView(ctx context.Context, quoteID, viewID string) error {
	_, err := r.mutateQuote(ctx, quoteID, func(q *model.Quote) error {
		if len(q.Views) <= 1 {
			return ErrLastView
		}
		kept := make([]model.View, 0, len(q.Views)-1)
		for _, v := range q.Views {
			if v.ID != viewID {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(q.Views) {
			return fmt.Errorf("view %s: %w", viewID, ErrNotFound)
		}
		q.Views = kept
		return nil
	})
	return err
}

// RenameView sets the name of one view.
func (r *Repository) RenameView(ctx context.Context, quoteID, viewID, name string) error {
	_, err := r.mutateQuote(ctx, quoteID, func(q *model.Quote) error {
		v := q.View(viewID)
		if v == nil {
			return fmt.Errorf("view %s: %w", viewID, ErrNotFound)
		}
		v.Name = name
		return nil
	})
	return err
}

/* Parts */

// PartPatch carries the editable part fields. Nil fields are left alone; an
// empty MaterialID clears the material.
type PartPatch struct {
	Name       *string  `json:"name"`
	MaterialID *string  `json:"materialId"`
	Volume     *float64 `json:"volume"`
}

// Validate rejects a negative volume.
func (p PartPatch) Validate() error {
	v := model.Violations{}
	if p.Volume != nil && *p.Volume < 0 {
		v["volume"] = "must_be_non_negative"
	}
	return v.Err()
}

// mutatePart runs fn against one part of one view.
func (r *Repository) mutatePart(ctx context.Context, quoteID, viewID, partID string, fn func(v *model.View, i int) error) (*model.Quote, error) {
	return r.mutateQuote(ctx, quoteID, func(q *model.Quote) error {
		v := q.View(viewID)
		if v == nil {
			return fmt.Errorf("view %s: %w", viewID, ErrNotFound)
		}
		for i := range v.Parts {
			if v.Parts[i].ID == partID {
				return fn(v, i)
			}
		}
		return fmt.Errorf("part %s: %w", partID, ErrNotFound)
	})
}

// AddPart appends an empty, numbered part to the view.
func (r *Repository) AddPart(ctx context.Context, quoteID, viewID string) (*model.Part, error) {
	var added model.Part
	_, err := r.mutateQuote(ctx, quoteID, func(q *model.Quote) error {
		v := q.View(viewID)
		if v == nil {
			return fmt.Errorf("view %s: %w", viewID, ErrNotFound)
		}
		added = model.Part{
			ID:      model.NewID(model.PrefixPart),
			Name:    fmt.Sprintf("Part %d", len(v.Parts)+1),
			Options: []model.Option{},
		}
		v.Parts = append(v.Parts, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// UpdatePart applies patch to one part and returns the result.
func (r *Repository) UpdatePart(ctx context.Context, quoteID, viewID, partID string, patch PartPatch) (*model.Part, error) {
	var updated model.Part
	_, err := r.mutatePart(ctx, quoteID, viewID, partID, func(v *model.View, i int) error {
		p := &v.Parts[i]
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.MaterialID != nil {
			p.MaterialID = model.StringPtr(*patch.MaterialID)
		}
		if patch.Volume != nil {
			p.Volume = *patch.Volume
		}
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetPartMaterialName points the part at the first color of the named
// material, or at no material when the name is unknown.
func (r *Repository) SetPartMaterialName(ctx context.Context, quoteID, viewID, partID, name string) (*model.Part, error) {
	colors, err := r.ColorsForMaterial(ctx, name)
	if err != nil {
		return nil, err
	}
	materialID := ""
	if len(colors) > 0 {
		materialID = colors[0].ID
	}
	return r.UpdatePart(ctx, quoteID, viewID, partID, PartPatch{MaterialID: &materialID})
}

// DuplicatePart inserts a deep copy right after the original.
func (r *Repository) DuplicatePart(ctx context.Context, quoteID, viewID, partID string) (*model.Part, error) {
	var added model.Part
	_, err := r.mutatePart(ctx, quoteID, viewID, partID, func(v *model.View, i int) error {
		added = v.Parts[i].Clone()
		parts := make([]model.Part, 0, len(v.Parts)+1)
		parts = append(parts, v.Parts[:i+1]...)
		parts = append(parts, added)
		parts = append(parts, v.Parts[i+1:]...)
		v.Parts = parts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// DeletePart removes a part together with its options.
func (r *Repository) DeletePart(ctx context.Context, quoteID, viewID, partID string) error {
	_, err := r.mutatePart(ctx, quoteID, viewID, partID, func(v *model.View, i int) error {
		v.Parts = append(v.Parts[:i:i], v.Parts[i+1:]...)
		return nil
	})
	return err
}

/* Options */

// OptionPatch carries the editable option fields. Nil fields are left alone.
type OptionPatch struct {
	Type      *model.OptionType `json:"type"`
	Name      *string           `json:"name"`
	Price     *float64          `json:"price"`
	PriceType *model.PriceType  `json:"priceType"`
}

// Validate rejects an unknown type or price type.
func (p OptionPatch) Validate() error {
	v := model.Violations{}
	if p.Type != nil && *p.Type != model.OptionPostProcessing && *p.Type != model.OptionMechanism {
		v["type"] = "unknown_type"
	}
	if p.PriceType != nil && *p.PriceType != model.PriceFixed && *p.PriceType != model.PricePercent {
		v["priceType"] = "unknown_price_type"
	}
	return v.Err()
}

func (r *Repository) mutateOption(ctx context.Context, quoteID, viewID, partID string, index int, fn func(o *model.Option)) (*model.Part, error) {
	var updated model.Part
	_, err := r.mutatePart(ctx, quoteID, viewID, partID, func(v *model.View, i int) error {
		p := &v.Parts[i]
		if index < 0 || index >= len(p.Options) {
			return fmt.Errorf("option %d: %w", index, ErrNotFound)
		}
		fn(&p.Options[index])
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddOption appends a blank fixed-price option of the given type.
func (r *Repository) AddOption(ctx context.Context, quoteID, viewID, partID string, typ model.OptionType) (*model.Part, error) {
	var updated model.Part
	_, err := r.mutatePart(ctx, quoteID, viewID, partID, func(v *model.View, i int) error {
		p := &v.Parts[i]
		p.Options = append(p.Options, model.Option{Type: typ, PriceType: model.PriceFixed})
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateOption applies patch to the option at index.
func (r *Repository) UpdateOption(ctx context.Context, quoteID, viewID, partID string, index int, patch OptionPatch) (*model.Part, error) {
	return r.mutateOption(ctx, quoteID, viewID, partID, index, func(o *model.Option) {
		if patch.Type != nil {
			o.Type = *patch.Type
		}
		if patch.Name != nil {
			o.Name = *patch.Name
		}
		if patch.Price != nil {
			o.Price = *patch.Price
		}
		if patch.PriceType != nil {
			o.PriceType = *patch.PriceType
		}
	})
}

// ApplyOptionPreset copies the preset into the option by value. An unknown
// preset leaves the part untouched and nothing is written.
func (r *Repository) ApplyOptionPreset(ctx context.Context, quoteID, viewID, partID string, index int, presetID string) (*model.Part, error) {
	preset, err := r.OptionPreset(ctx, presetID)
	if err != nil {
		return nil, err
	}
	if preset == nil {
		q, err := r.Quote(ctx, quoteID)
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, fmt.Errorf("quote %s: %w", quoteID, ErrNotFound)
		}
		v := q.View(viewID)
		if v == nil {
			return nil, fmt.Errorf("view %s: %w", viewID, ErrNotFound)
		}
		p := v.Part(partID)
		if p == nil {
			return nil, fmt.Errorf("part %s: %w", partID, ErrNotFound)
		}
		return p, nil
	}
	return r.mutateOption(ctx, quoteID, viewID, partID, index, func(o *model.Option) {
		o.ApplyPreset(*preset)
	})
}

// RemoveOption deletes the option at index.
func (r *Repository) RemoveOption(ctx context.Context, quoteID, viewID, partID string, index int) (*model.Part, error) {
	var updated model.Part
	_, err := r.mutatePart(ctx, quoteID, viewID, partID, func(v *model.View, i int) error {
		p := &v.Parts[i]
		if index < 0 || index >= len(p.Options) {
			return fmt.Errorf("option %d: %w", index, ErrNotFound)
		}
		p.Options = append(p.Options[:index:index], p.Options[index+1:]...)
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

/* Repair on read */

func defaultViewName(i int) string {
	return fmt.Sprintf("View %d", i+1)
}

func newView(name string) model.View {
	return model.View{ID: model.NewID(model.PrefixView), Name: name, Parts: []model.Part{}}
}

// repairQuote upgrades older data shapes in place. It is idempotent and the
// synthesized view id is derived from the quote id so repeated reads agree.
func repairQuote(q *model.Quote) {
	if len(q.Views) == 0 {
		q.Views = []model.View{{
			ID:    model.PrefixView + "_" + q.ID,
			Name:  defaultViewName(0),
			Parts: []model.Part{},
		}}
	}
	for i := range q.Views {
		v := &q.Views[i]
		if v.Name == "" {
			v.Name = defaultViewName(i)
		}
		if v.Parts == nil {
			v.Parts = []model.Part{}
		}
		for j := range v.Parts {
			p := &v.Parts[j]
			if p.Options == nil {
				p.Options = []model.Option{}
			}
			for k := range p.Options {
				if p.Options[k].PriceType == "" {
					p.Options[k].PriceType = model.PriceFixed
				}
			}
		}
	}
}
