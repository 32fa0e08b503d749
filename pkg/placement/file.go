package placement

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matthetz/scrim/pkg/errors"
)

// FileBackend persists the snapshot as a single JSON document. Writes go to
// a temporary file in the same directory followed by a rename, so a crash
// mid-write leaves the previous snapshot intact.
type FileBackend struct {
	path string
}

// NewFileBackend creates a file backend writing to path. The parent
// directory is created if missing.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create snapshot dir")
	}
	return &FileBackend{path: path}, nil
}

// Path returns the snapshot file location.
func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Load(ctx context.Context) (*Document, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read snapshot %s", b.path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSnapshotBad, err, "parse snapshot %s", b.path)
	}
	if doc.Version != Version {
		return nil, errors.New(errors.ErrCodeSnapshotBad,
			"snapshot %s has version %d, want %d", b.path, doc.Version, Version)
	}
	if doc.Groups == nil {
		doc.Groups = make(map[string]map[string]*Entry)
	}
	return &doc, nil
}

func (b *FileBackend) Store(ctx context.Context, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "marshal snapshot")
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create temp snapshot")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeStorage, err, "write temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeStorage, err, "close temp snapshot")
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeStorage, err, "rename snapshot into place")
	}
	return nil
}

func (b *FileBackend) Reset(ctx context.Context) error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove snapshot %s", b.path)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }

var _ Backend = (*FileBackend)(nil)

// String implements fmt.Stringer for log output.
func (b *FileBackend) String() string {
	return fmt.Sprintf("file(%s)", b.path)
}
