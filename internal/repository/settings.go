package repository

import (
	"context"
	"fmt"

	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/model"
)

// DefaultSettings are used when no settings have been stored yet.
func DefaultSettings() model.Settings {
	return model.Settings{"sidebarCollapsed": false}
}

// Settings returns the global settings, or the defaults.
func (r *Repository) Settings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	ok, err := r.loadDocument(ctx, kv.KeySettings, &s)
	if err != nil {
		return nil, err
	}
	if !ok || s == nil {
		return DefaultSettings(), nil
	}
	return s, nil
}

// SaveSettings stores global settings. Device-local keys are moved to the
// local settings document so they never reach an export.
func (r *Repository) SaveSettings(ctx context.Context, s model.Settings) error {
	docs := map[string]any{kv.KeySettings: s.WithoutLocalKeys()}

	moved := false
	local, err := r.LocalSettings(ctx)
	if err != nil {
		return err
	}
	for _, k := range model.LocalOnlySettingKeys {
		if v, ok := s[k]; ok {
			local[k] = v
			moved = true
		}
	}
	if moved {
		docs[kv.KeyLocalSettings] = local
	}
	return r.writeBatch(ctx, docs)
}

// LocalSettings returns the device-local settings document.
func (r *Repository) LocalSettings(ctx context.Context) (model.LocalSettings, error) {
	var s model.LocalSettings
	ok, err := r.loadDocument(ctx, kv.KeyLocalSettings, &s)
	if err != nil {
		return nil, err
	}
	if !ok || s == nil {
		return model.LocalSettings{}, nil
	}
	return s, nil
}

// LocalSetting returns the value of one device-local setting, or nil.
func (r *Repository) LocalSetting(ctx context.Context, key string) (any, error) {
	s, err := r.LocalSettings(ctx)
	if err != nil {
		return nil, err
	}
	return s[key], nil
}

// SaveLocalSetting sets one device-local key. Local settings are not
// mirrored, so the change notifier is not triggered.
func (r *Repository) SaveLocalSetting(ctx context.Context, key string, value any) error {
	s, err := r.LocalSettings(ctx)
	if err != nil {
		return err
	}
	s[key] = value
	return r.putLocalSettings(ctx, s)
}

func (r *Repository) putLocalSettings(ctx context.Context, s model.LocalSettings) error {
	raw, err := marshal(s)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, kv.KeyLocalSettings, raw); err != nil {
		return fmt.Errorf("save local settings: %w", err)
	}
	return nil
}
