package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultSnapshotKey is the fixed key the platform snapshot is stored under.
const DefaultSnapshotKey = "peerReview_platformData"

// ErrSnapshotNotFound indicates nothing has been persisted yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository persists the serialized platform snapshot as a single blob.
// Writes fully overwrite the previous value.
type SnapshotRepository interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
}

type fileSnapshotRepository struct {
	fs   afero.Fs
	path string
}

// NewFileSnapshotRepository stores the snapshot as a JSON file on the given filesystem.
func NewFileSnapshotRepository(fs afero.Fs, dir, key string) SnapshotRepository {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &fileSnapshotRepository{
		fs:   fs,
		path: filepath.Join(dir, key+".json"),
	}
}

func (r *fileSnapshotRepository) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return data, nil
}

func (r *fileSnapshotRepository) Write(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := r.fs.Rename(tmp, r.path); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}
