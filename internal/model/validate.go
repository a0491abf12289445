package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidRecord is returned by Validate when a record breaks a caller-side
// precondition.
var ErrInvalidRecord = errors.New("invalid record")

// Violations maps a field name to a short reason code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns nil when there are no violations.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	fields := make([]string, 0, len(v))
	for f, reason := range v {
		fields = append(fields, f+"="+reason)
	}
	sort.Strings(fields)
	return &ValidationError{Violations: v, summary: strings.Join(fields, ", ")}
}

// ValidationError carries the per-field violations.
type ValidationError struct {
	Violations Violations
	summary    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRecord, e.summary)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

func required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func nonNegative(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_be_non_negative"
	}
}

func percent(field string, val int, v Violations) {
	if val < 0 || val > 100 {
		v[field] = "out_of_range"
	}
}

func optionType(field string, t OptionType, v Violations) {
	if t != OptionPostProcessing && t != OptionMechanism {
		v[field] = "unknown_type"
	}
}

func priceType(field string, t PriceType, v Violations) {
	if t != PriceFixed && t != PricePercent {
		v[field] = "unknown_price_type"
	}
}

// Validate requires a name and a non-negative unit price.
func (m Material) Validate() error {
	v := Violations{}
	required("name", m.Name, v)
	nonNegative("pricePerUnit", m.PricePerUnit, v)
	return v.Err()
}

// Validate requires a name and a discount between 0 and 100.
func (c Client) Validate() error {
	v := Violations{}
	required("name", c.Name, v)
	percent("discountRate", c.DiscountRate, v)
	return v.Err()
}

// Validate requires a discount between 0 and 100.
func (c CustomClient) Validate() error {
	v := Violations{}
	percent("discountRate", c.DiscountRate, v)
	return v.Err()
}

// Validate requires a name, known enums and a non-negative price.
func (p OptionPreset) Validate() error {
	v := Violations{}
	required("name", p.Name, v)
	optionType("type", p.Type, v)
	priceType("priceType", p.PriceType, v)
	nonNegative("price", p.Price, v)
	return v.Err()
}

// Validate requires a name.
func (t Tag) Validate() error {
	v := Violations{}
	required("name", t.Name, v)
	return v.Err()
}
