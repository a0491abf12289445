// Package kv is the persistence boundary: a flat string-keyed store of JSON
// documents, one document per collection.
package kv

import "context"

// Persistence keys. Each holds a JSON array, except the two settings keys
// which hold JSON objects.
const (
	KeyMaterials     = "materials"
	KeyClients       = "clients"
	KeyQuotes        = "quotes"
	KeyOptionPresets = "option-presets"
	KeyTags          = "tags"
	KeySettings      = "settings"
	KeyLocalSettings = "local-settings"
)

// Store is a key-value store of raw JSON documents.
type Store interface {
	// Get returns ok=false when the key has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	// PutBatch writes every entry or none of them.
	PutBatch(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
}
