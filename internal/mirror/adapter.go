// Package mirror keeps a copy of all persisted collections in a single JSON
// file inside a user-chosen directory.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileName is the name of the mirror file inside the chosen directory.
const FileName = "quotecalc-data.json"

var (
	ErrCancelled        = errors.New("directory selection cancelled")
	ErrPermissionDenied = errors.New("directory permission denied")
	ErrDisabled         = errors.New("mirror is disabled")
)

// Handle identifies a granted directory.
type Handle string

// Adapter is the platform side of the mirror: picking a directory and moving
// bytes in and out of it.
type Adapter interface {
	SelectDirectory(ctx context.Context) (Handle, error)
	ReadExisting(ctx context.Context, h Handle) ([]byte, bool, error)
	Write(ctx context.Context, h Handle, data []byte) error
}

// DirAdapter serves a fixed directory on an afero filesystem. An empty Dir
// behaves like a user who always cancels the picker.
type DirAdapter struct {
	Fs  afero.Fs
	Dir string
}

// NewDirAdapter returns an adapter rooted at dir on fs. An empty dir behaves
// like a cancelled picker.
func NewDirAdapter(fs afero.Fs, dir string) *DirAdapter {
	return &DirAdapter{Fs: fs, Dir: dir}
}

// SelectDirectory returns the configured directory, creating it if needed.
func (a *DirAdapter) SelectDirectory(_ context.Context) (Handle, error) {
	if a.Dir == "" {
		return "", ErrCancelled
	}
	ok, err := afero.DirExists(a.Fs, a.Dir)
	if err != nil {
		return "", fmt.Errorf("select directory: %w", mapErr(err))
	}
	if !ok {
		if err := a.Fs.MkdirAll(a.Dir, 0o755); err != nil {
			return "", fmt.Errorf("select directory: %w", mapErr(err))
		}
	}
	return Handle(a.Dir), nil
}

// ReadExisting returns the mirror file in h, if there is one.
func (a *DirAdapter) ReadExisting(_ context.Context, h Handle) ([]byte, bool, error) {
	data, err := afero.ReadFile(a.Fs, filepath.Join(string(h), FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read mirror file: %w", mapErr(err))
	}
	return data, true, nil
}

// Write replaces the mirror file through a temp file so a crash never leaves
// a truncated copy.
func (a *DirAdapter) Write(_ context.Context, h Handle, data []byte) error {
	path := filepath.Join(string(h), FileName)
	tmp := path + ".tmp"
	if err := afero.WriteFile(a.Fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write mirror file: %w", mapErr(err))
	}
	if err := a.Fs.Rename(tmp, path); err != nil {
		_ = a.Fs.Remove(tmp)
		return fmt.Errorf("write mirror file: %w", mapErr(err))
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}
