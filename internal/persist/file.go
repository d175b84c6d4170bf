package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore writes one JSON document per study under Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) path(studyID string) (string, error) {
	if err := ValidStudyID(studyID); err != nil {
		return "", err
	}
	return filepath.Join(f.Dir, studyID+".json"), nil
}

func (f *FileStore) Load(_ context.Context, studyID string) (*Snapshot, error) {
	p, err := f.path(studyID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return Decode(data)
}

// Save replaces the study's file atomically.
func (f *FileStore) Save(_ context.Context, studyID string, snap *Snapshot) error {
	p, err := f.path(studyID)
	if err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.Dir, "."+studyID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, studyID string) error {
	p, err := f.path(studyID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove state: %w", err)
	}
	return nil
}
