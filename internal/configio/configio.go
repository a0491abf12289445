// Package configio exports and imports the catalog configuration as a single
// JSON document.
package configio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/repository"
)

// Version is written into every export.
const Version = "1.0"

// ErrInvalidImport is returned when an import document has the wrong shape.
// Nothing is written in that case.
var ErrInvalidImport = errors.New("invalid configuration file")

// Options controls the export scope.
type Options struct {
	IncludeQuotes bool
}

// Document is the exported file layout.
type Document struct {
	Version       string               `json:"version"`
	ExportedAt    time.Time            `json:"exportedAt"`
	Materials     []model.Material     `json:"materials"`
	Clients       []model.Client       `json:"clients"`
	OptionPresets []model.OptionPreset `json:"optionPresets"`
	Tags          []model.Tag          `json:"tags"`
	Settings      model.Settings       `json:"settings"`
	Quotes        []model.Quote        `json:"quotes,omitempty"`
}

// Service exports and imports the configuration document.
type Service struct {
	repo *repository.Repository
	opts Options
	now  func() time.Time
}

// New returns a Service over repo.
func New(repo *repository.Repository, opts Options) *Service {
	return &Service{repo: repo, opts: opts, now: time.Now}
}

// FileName is the suggested download name for an export taken at t.
func FileName(t time.Time) string {
	return "quotecalc-config-" + t.Format("2006-01-02") + ".json"
}

// Export returns the indented configuration document.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	doc := Document{Version: Version, ExportedAt: s.now().UTC()}

	var err error
	if doc.Materials, err = s.repo.Materials(ctx); err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}
	if doc.Clients, err = s.repo.Clients(ctx); err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}
	if doc.OptionPresets, err = s.repo.OptionPresets(ctx); err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}
	if doc.Tags, err = s.repo.Tags(ctx); err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}
	doc.Settings = settings.WithoutLocalKeys()
	if s.opts.IncludeQuotes {
		if doc.Quotes, err = s.repo.Quotes(ctx); err != nil {
			return nil, fmt.Errorf("export config: %w", err)
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}

// ImportsQuotes reports whether Import may replace the quotes collection.
func (s *Service) ImportsQuotes() bool {
	return s.opts.IncludeQuotes
}

// Import replaces every collection present in data. The whole document is
// decoded before anything is written; unknown keys are ignored.
func (s *Service) Import(ctx context.Context, data []byte) error {
	rp, err := s.decode(data)
	if err != nil {
		return err
	}
	if err := s.repo.ReplaceCollections(ctx, rp); err != nil {
		return fmt.Errorf("import config: %w", err)
	}
	return nil
}

func (s *Service) decode(data []byte) (repository.Replacement, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return repository.Replacement{}, fmt.Errorf("%w: top level must be an object", ErrInvalidImport)
	}

	var rp repository.Replacement
	fields := []struct {
		key string
		dst any
	}{
		{"materials", &rp.Materials},
		{"clients", &rp.Clients},
		{"optionPresets", &rp.OptionPresets},
		{"tags", &rp.Tags},
	}
	if s.opts.IncludeQuotes {
		fields = append(fields, struct {
			key string
			dst any
		}{"quotes", &rp.Quotes})
	}
	for _, f := range fields {
		raw, ok := top[f.key]
		if !ok {
			continue
		}
		if !isKind(raw, '[') {
			return repository.Replacement{}, fmt.Errorf("%w: %s must be an array", ErrInvalidImport, f.key)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return repository.Replacement{}, fmt.Errorf("%w: %s: %v", ErrInvalidImport, f.key, err)
		}
	}

	if raw, ok := top["settings"]; ok {
		if !isKind(raw, '{') {
			return repository.Replacement{}, fmt.Errorf("%w: settings must be an object", ErrInvalidImport)
		}
		if err := json.Unmarshal(raw, &rp.Settings); err != nil {
			return repository.Replacement{}, fmt.Errorf("%w: settings: %v", ErrInvalidImport, err)
		}
	}
	return rp, nil
}

// isKind reports whether the first non-space byte of raw is open.
func isKind(raw json.RawMessage, open byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b == open
	}
	return false
}
