package model

import "time"

// OptionType classifies an add-on attached to a part.
type OptionType string

const (
	OptionPostProcessing OptionType = "postProcessing"
	OptionMechanism      OptionType = "mechanism"
)

// PriceType tells whether an option price is an absolute amount or a
// percentage of the part's printing cost.
type PriceType string

const (
	PriceFixed   PriceType = "fixed"
	PricePercent PriceType = "percent"
)

// Material is a catalog entry priced per unit of volume.
type Material struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	PricePerUnit float64 `json:"pricePerUnit"`
}

// Client is a named discount preset.
type Client struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DiscountRate int    `json:"discountRate"`
}

// OptionPreset is a reusable template copied into a part's option.
type OptionPreset struct {
	ID        string     `json:"id"`
	Type      OptionType `json:"type"`
	Name      string     `json:"name"`
	PriceType PriceType  `json:"priceType"`
	Price     float64    `json:"price"`
}

// Tag classifies quotes.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CustomClient is an ad-hoc client typed directly on a quote.
type CustomClient struct {
	Name         string `json:"name"`
	DiscountRate int    `json:"discountRate"`
}

// Quote is the aggregate root: it exclusively owns its views.
type Quote struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	TagID        *string       `json:"tagId"`
	ClientID     *string       `json:"clientId"`
	CustomClient *CustomClient `json:"customClient"`
	Views        []View        `json:"views"`
}

// View is one pricing scenario within a quote.
type View struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Parts []Part `json:"parts"`
}

// Part is a priced component tied to a material and a volume.
type Part struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	MaterialID *string  `json:"materialId"`
	Volume     float64  `json:"volume"`
	Options    []Option `json:"options"`
}

// Option is an add-on embedded in a part. It has no identity of its own.
type Option struct {
	Type      OptionType `json:"type"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	PriceType PriceType  `json:"priceType"`
	PresetID  string     `json:"presetId,omitempty"`
}

// Settings holds global, exportable preferences. Unknown keys are preserved.
type Settings map[string]any

// LocalSettings holds device-local preferences that never leave the machine.
type LocalSettings map[string]any

// LocalOnlySettingKeys lists keys that belong to the device and must be
// stripped whenever settings cross the export/import boundary.
var LocalOnlySettingKeys = []string{"sidebarWidth"}

// WithoutLocalKeys returns a copy of s without device-local keys.
func (s Settings) WithoutLocalKeys() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	for _, k := range LocalOnlySettingKeys {
		delete(out, k)
	}
	return out
}

// View returns the view with the given id, or nil.
func (q *Quote) View(id string) *View {
	for i := range q.Views {
		if q.Views[i].ID == id {
			return &q.Views[i]
		}
	}
	return nil
}

// Part returns the part with the given id, or nil.
func (v *View) Part(id string) *Part {
	for i := range v.Parts {
		if v.Parts[i].ID == id {
			return &v.Parts[i]
		}
	}
	return nil
}

// ApplyPreset copies the preset's fields into the option by value.
func (o *Option) ApplyPreset(p OptionPreset) {
	o.Type = p.Type
	o.Name = p.Name
	o.Price = p.Price
	o.PriceType = p.PriceType
	o.PresetID = p.ID
}

// StringPtr returns nil for an empty string, a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
