package session

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStorage persists the session record as a JSON file under a directory,
// one file per record name. Writes go through a temp file plus rename so a
// crash mid-write never leaves a truncated record behind.
type FileStorage struct {
	dir string
}

// NewFileStorage creates a [FileStorage] rooted at dir. The directory is
// created on first save, not here.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (f *FileStorage) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileStorage) Load(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return data, nil
}

func (f *FileStorage) Save(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, f.path(name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
