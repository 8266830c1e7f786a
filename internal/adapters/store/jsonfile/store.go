package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"reelgrab/internal/core/domain"
)

// Store implements ports.ResultStore as a single JSON array on disk, newest
// record first.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New creates a Store backed by the file at path. The file is created on
// first save.
func New(path string) *Store {
	return &Store{path: path, now: func() time.Time { return time.Now().UTC() }}
}

// Save prepends the result to the log and stamps it with a storage time.
func (s *Store) Save(ctx context.Context, result domain.DownloadResult) (*domain.StoredResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}

	stored := domain.StoredResult{DownloadResult: result, StoredAt: s.now()}
	records = append([]domain.StoredResult{stored}, records...)
	if err := s.write(records); err != nil {
		return nil, err
	}

	return &stored, nil
}

// List returns every stored result, newest first.
func (s *Store) List(ctx context.Context) ([]domain.StoredResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// Get returns a single stored result by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.StoredResult, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}

	return nil, domain.ErrResultNotFound
}

func (s *Store) read() ([]domain.StoredResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.StoredResult{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	records := []domain.StoredResult{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}

	return records, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *Store) write(records []domain.StoredResult) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	return nil
}

// Close is a no-op; every save is already flushed to disk.
func (s *Store) Close() error {
	return nil
}
