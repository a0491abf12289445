package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Simplici0/quotecalc/internal/logger"
	"github.com/Simplici0/quotecalc/internal/metrics"
	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/repository"
)

// Local settings written by the mirror.
const (
	settingEnabled   = "fileStorageEnabled"
	settingDir       = "fileStorageDir"
	settingLastSaved = "fileStorageLastSaved"
)

// File is the mirror file layout.
type File struct {
	Quotes        json.RawMessage      `json:"quotes"`
	Materials     []model.Material     `json:"materials"`
	Clients       []model.Client       `json:"clients"`
	OptionPresets []model.OptionPreset `json:"optionPresets"`
	Tags          []model.Tag          `json:"tags"`
	Settings      model.Settings       `json:"settings"`
	LastSaved     time.Time            `json:"lastSaved"`
}

// Status is the mirror state reported to the UI.
type Status struct {
	Available bool       `json:"available"`
	Enabled   bool       `json:"enabled"`
	Dir       string     `json:"dir,omitempty"`
	LastSaved *time.Time `json:"lastSaved,omitempty"`
}

// Manager mirrors the repository into a directory. The primary store is
// always written first; mirror failures never roll it back.
type Manager struct {
	adapter Adapter
	repo    *repository.Repository
	log     *logger.Logger
	now     func() time.Time

	mu        sync.Mutex
	handle    Handle
	enabled   bool
	lastSaved *time.Time

	// set while Load writes into the repository, whose notifier points back
	// at Changed.
	loading atomic.Bool
}

// NewManager returns a disabled manager. A nil adapter means mirroring is not
// available on this host.
func NewManager(adapter Adapter, repo *repository.Repository, log *logger.Logger) *Manager {
	return &Manager{adapter: adapter, repo: repo, log: log, now: time.Now}
}

// Resume re-enables the mirror when local settings say it was on.
func (m *Manager) Resume(ctx context.Context) error {
	local, err := m.repo.LocalSettings(ctx)
	if err != nil {
		return err
	}
	on, _ := local[settingEnabled].(bool)
	dir, _ := local[settingDir].(string)
	if !on || dir == "" || m.adapter == nil {
		return nil
	}

	m.mu.Lock()
	m.handle = Handle(dir)
	m.enabled = true
	m.mu.Unlock()
	m.log.Info("mirror resumed", "dir", dir)
	return nil
}

// Enable asks the adapter for a directory. When the directory already holds a
// mirror file and preferExisting is set, that file is loaded into the store;
// otherwise the current state is written to it. On any failure the mirror is
// left off.
func (m *Manager) Enable(ctx context.Context, preferExisting bool) error {
	if m.adapter == nil {
		return ErrDisabled
	}
	h, err := m.adapter.SelectDirectory(ctx)
	if err != nil {
		return err
	}
	data, exists, err := m.adapter.ReadExisting(ctx, h)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.handle = h
	m.enabled = true
	m.mu.Unlock()

	if err := m.activate(ctx, h, data, exists && preferExisting); err != nil {
		m.mu.Lock()
		m.enabled = false
		m.handle = ""
		m.mu.Unlock()
		if derr := m.repo.SaveLocalSetting(ctx, settingEnabled, false); derr != nil {
			m.log.Error("disable mirror", "err", derr)
		}
		return err
	}
	return nil
}

func (m *Manager) activate(ctx context.Context, h Handle, data []byte, load bool) error {
	if err := m.repo.SaveLocalSetting(ctx, settingEnabled, true); err != nil {
		return err
	}
	if err := m.repo.SaveLocalSetting(ctx, settingDir, string(h)); err != nil {
		return err
	}
	if load {
		return m.apply(ctx, data)
	}
	return m.Save(ctx)
}

// Save writes the full state to the mirror file.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	h, on := m.handle, m.enabled
	m.mu.Unlock()
	if !on {
		return ErrDisabled
	}

	data, savedAt, err := m.encode(ctx)
	if err != nil {
		return err
	}
	if err := m.adapter.Write(ctx, h, data); err != nil {
		metrics.MirrorSaves.WithLabelValues(metrics.Failed).Inc()
		m.disableOnPermission(ctx, err)
		return err
	}
	metrics.MirrorSaves.WithLabelValues(metrics.OK).Inc()

	m.mu.Lock()
	m.lastSaved = &savedAt
	m.mu.Unlock()
	return m.repo.SaveLocalSetting(ctx, settingLastSaved, savedAt.Format(time.RFC3339))
}

// Load reads the mirror file and replaces every collection it contains.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	h, on := m.handle, m.enabled
	m.mu.Unlock()
	if !on {
		return ErrDisabled
	}

	data, exists, err := m.adapter.ReadExisting(ctx, h)
	if err != nil {
		m.disableOnPermission(ctx, err)
		return err
	}
	if !exists {
		return nil
	}
	return m.apply(ctx, data)
}

// Changed is the repository notifier: it saves after every write while the
// mirror is on. Failures are logged only.
func (m *Manager) Changed(ctx context.Context) {
	if m.loading.Load() {
		return
	}
	m.mu.Lock()
	on := m.enabled
	m.mu.Unlock()
	if !on {
		return
	}
	if err := m.Save(ctx); err != nil {
		m.log.Warn("mirror auto-save failed", "err", err)
	}
}

// Disable turns the mirror off and forgets the directory. The mirror file is
// left in place.
func (m *Manager) Disable(ctx context.Context) error {
	m.mu.Lock()
	m.enabled = false
	m.handle = ""
	m.mu.Unlock()
	return m.repo.SaveLocalSetting(ctx, settingEnabled, false)
}

// Status returns a copy of the current mirror state.
func (m *Manager) Status(_ context.Context) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Available: m.adapter != nil, Enabled: m.enabled, Dir: string(m.handle)}
	if m.lastSaved != nil {
		t := *m.lastSaved
		st.LastSaved = &t
	}
	return st
}

func (m *Manager) encode(ctx context.Context) ([]byte, time.Time, error) {
	var (
		f   File
		err error
	)
	if f.Quotes, err = m.repo.SnapshotQuotes(ctx); err != nil {
		return nil, time.Time{}, err
	}
	if f.Materials, err = m.repo.Materials(ctx); err != nil {
		return nil, time.Time{}, err
	}
	if f.Clients, err = m.repo.Clients(ctx); err != nil {
		return nil, time.Time{}, err
	}
	if f.OptionPresets, err = m.repo.OptionPresets(ctx); err != nil {
		return nil, time.Time{}, err
	}
	if f.Tags, err = m.repo.Tags(ctx); err != nil {
		return nil, time.Time{}, err
	}
	settings, err := m.repo.Settings(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	f.Settings = settings.WithoutLocalKeys()
	f.LastSaved = m.now().UTC()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("encode mirror file: %w", err)
	}
	return data, f.LastSaved, nil
}

func (m *Manager) apply(ctx context.Context, data []byte) error {
	var f struct {
		Quotes        []model.Quote        `json:"quotes"`
		Materials     []model.Material     `json:"materials"`
		Clients       []model.Client       `json:"clients"`
		OptionPresets []model.OptionPreset `json:"optionPresets"`
		Tags          []model.Tag          `json:"tags"`
		Settings      model.Settings       `json:"settings"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode mirror file: %w", err)
	}

	m.loading.Store(true)
	defer m.loading.Store(false)
	err := m.repo.ReplaceCollections(ctx, repository.Replacement{
		Materials:     f.Materials,
		Clients:       f.Clients,
		OptionPresets: f.OptionPresets,
		Tags:          f.Tags,
		Settings:      f.Settings,
		Quotes:        f.Quotes,
	})
	if err != nil {
		return fmt.Errorf("load mirror file: %w", err)
	}
	m.log.Info("mirror file loaded")
	return nil
}

func (m *Manager) disableOnPermission(ctx context.Context, err error) {
	if !errors.Is(err, ErrPermissionDenied) {
		return
	}
	m.log.Warn("mirror permission lost, disabling", "err", err)
	if derr := m.Disable(ctx); derr != nil {
		m.log.Error("disable mirror", "err", derr)
	}
}
