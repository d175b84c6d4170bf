package upload

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/radview/internal/imagesource"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// MaxFileSize bounds a single stored blob.
const MaxFileSize = 512 << 20

// BlobMetadata is written next to each blob.
type BlobMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// DiskStore keeps uploaded files in a directory and serves them back under
// BaseURL + "/blobs/<id>". Without a BaseURL the returned references are
// "blob:<id>", resolved locally through Resolve.
type DiskStore struct {
	Dir     string
	BaseURL string
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// URL returns the public address of a blob id.
func (s *DiskStore) URL(id string) string {
	if s.BaseURL == "" {
		return imagesource.BlobPrefix + id
	}
	return s.BaseURL + "/blobs/" + id
}

// Upload implements Uploader.
func (s *DiskStore) Upload(ctx context.Context, f File) (string, error) {
	meta, err := s.Put(ctx, f)
	if err != nil {
		return "", err
	}
	return s.URL(meta.ID), nil
}

// Put stores f and returns its metadata.
func (s *DiskStore) Put(ctx context.Context, f File) (*BlobMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(f.Data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	h := sha256.Sum256(f.Data)
	meta := BlobMetadata{
		ID:          uuid.New().String(),
		FileName:    f.Name,
		ContentType: f.ContentType,
		Size:        int64(len(f.Data)),
		Hash:        fmt.Sprintf("%x", h),
		CreatedAt:   time.Now().UTC(),
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}
	if err := os.WriteFile(s.blobPath(meta.ID), f.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.metaPath(meta.ID), raw, 0o644); err != nil {
		os.Remove(s.blobPath(meta.ID))
		return nil, fmt.Errorf("write blob metadata: %w", err)
	}
	return &meta, nil
}

// Open returns the blob content and its metadata.
func (s *DiskStore) Open(_ context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, ErrBlobNotFound
	}
	raw, err := os.ReadFile(s.metaPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	var meta BlobMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, nil, fmt.Errorf("blob metadata %s: %w", id, err)
	}
	f, err := os.Open(s.blobPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return f, &meta, nil
}

// Resolve opens a blob by id, matching imagesource.Resolver.
func (s *DiskStore) Resolve(ctx context.Context, id string) (io.ReadCloser, error) {
	rc, _, err := s.Open(ctx, id)
	return rc, err
}

func (s *DiskStore) blobPath(id string) string { return filepath.Join(s.Dir, id) }
func (s *DiskStore) metaPath(id string) string { return filepath.Join(s.Dir, id+".json") }
