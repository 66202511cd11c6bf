// Package blobstore provides storage for uploaded lab result files. It defines
// the BlobStore interface, a disk-backed implementation used by the server,
// and an in-memory implementation for testing.
package blobstore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidFileType = errors.New("file type is not allowed")
	ErrMissingFileName = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed upload size in bytes (10 MB).
const MaxFileSize = 10 * 1024 * 1024

// AllowedExtensions lists the file extensions accepted for lab result uploads.
var AllowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName replaces characters outside [a-zA-Z0-9._-] with underscores.
func SanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}

// ValidateExtension checks the file name against the allowed extension list.
func ValidateExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !AllowedExtensions[ext] {
		return ErrInvalidFileType
	}
	return nil
}

// StoredFileName builds the on-disk name for an upload: a millisecond
// timestamp prefix followed by the sanitized original name.
func StoredFileName(now time.Time, originalName string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFileName(originalName))
}

// FileMetadata describes a stored file.
type FileMetadata struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	PatientID    string    `json:"patient_id,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	Hash         string    `json:"hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// BlobStore defines the contract for file storage backends.
type BlobStore interface {
	Upload(ctx context.Context, meta FileMetadata, content io.Reader) (*FileMetadata, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *FileMetadata, error)
	GetMetadata(ctx context.Context, id string) (*FileMetadata, error)
	Delete(ctx context.Context, id string) error
	ListByRequest(ctx context.Context, requestID string) ([]*FileMetadata, error)
}

// prepare validates and fills in common metadata. Returns the content bytes.
func prepare(meta *FileMetadata, content io.Reader) ([]byte, error) {
	if meta.OriginalName == "" {
		return nil, ErrMissingFileName
	}
	if err := ValidateExtension(meta.OriginalName); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	meta.CreatedAt = time.Now().UTC()
	if meta.FileName == "" {
		meta.FileName = StoredFileName(meta.CreatedAt, meta.OriginalName)
	}
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", sha256.Sum256(data))
	return data, nil
}

// DiskBlobStore stores file content on disk under a root directory and keeps
// metadata in memory.
type DiskBlobStore struct {
	root string
	mu   sync.RWMutex
	meta map[string]*FileMetadata
}

// NewDiskBlobStore creates the root directory if needed and returns a
// ready-to-use store.
func NewDiskBlobStore(root string) (*DiskBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", root, err)
	}
	return &DiskBlobStore{
		root: root,
		meta: make(map[string]*FileMetadata),
	}, nil
}

func (s *DiskBlobStore) Upload(_ context.Context, meta FileMetadata, content io.Reader) (*FileMetadata, error) {
	data, err := prepare(&meta, content)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, meta.FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write file %s: %w", path, err)
	}

	s.mu.Lock()
	stored := meta
	s.meta[meta.ID] = &stored
	s.mu.Unlock()

	return &meta, nil
}

func (s *DiskBlobStore) Download(_ context.Context, id string) (io.ReadCloser, *FileMetadata, error) {
	s.mu.RLock()
	meta, ok := s.meta[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrFileNotFound
	}

	f, err := os.Open(filepath.Join(s.root, meta.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	m := *meta
	return f, &m, nil
}

func (s *DiskBlobStore) GetMetadata(_ context.Context, id string) (*FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.meta[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	m := *meta
	return &m, nil
}

func (s *DiskBlobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	meta, ok := s.meta[id]
	if ok {
		delete(s.meta, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrFileNotFound
	}

	if err := os.Remove(filepath.Join(s.root, meta.FileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *DiskBlobStore) ListByRequest(_ context.Context, requestID string) ([]*FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*FileMetadata
	for _, meta := range s.meta {
		if meta.RequestID == requestID {
			m := *meta
			out = append(out, &m)
		}
	}
	return out, nil
}

// Path returns the absolute on-disk path for a stored file name.
func (s *DiskBlobStore) Path(fileName string) string {
	return filepath.Join(s.root, fileName)
}

type storedBlob struct {
	metadata FileMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore for testing.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

// NewInMemoryBlobStore returns a ready-to-use InMemoryBlobStore.
func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{
		blobs: make(map[string]*storedBlob),
	}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, meta FileMetadata, content io.Reader) (*FileMetadata, error) {
	data, err := prepare(&meta, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	return &meta, nil
}

func (s *InMemoryBlobStore) Download(_ context.Context, id string) (io.ReadCloser, *FileMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrFileNotFound
	}
	m := blob.metadata
	return io.NopCloser(strings.NewReader(string(blob.content))), &m, nil
}

func (s *InMemoryBlobStore) GetMetadata(_ context.Context, id string) (*FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	m := blob.metadata
	return &m, nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return ErrFileNotFound
	}
	delete(s.blobs, id)
	return nil
}

func (s *InMemoryBlobStore) ListByRequest(_ context.Context, requestID string) ([]*FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*FileMetadata
	for _, blob := range s.blobs {
		if blob.metadata.RequestID == requestID {
			m := blob.metadata
			out = append(out, &m)
		}
	}
	return out, nil
}
