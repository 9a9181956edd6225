package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/tidwall/gjson"
)

// FileStore keeps every lead in memory and rewrites a JSON array file on
// each mutation. The file is replaced atomically with renameio.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	leads []Lead
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads path. A flat array is the native format. A
// {"leads": [...]} payload is returned as seed and the store starts empty.
func OpenFileStore(path string) (*FileStore, []byte, error) {
	s := &FileStore{path: path, leads: []Lead{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		return s, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read lead store: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return s, nil, nil
	case trimmed[0] == '{':
		return s, raw, nil
	}

	if !gjson.ValidBytes(trimmed) {
		return nil, nil, fmt.Errorf("decode lead store %s: invalid json", path)
	}
	rows := gjson.ParseBytes(trimmed)
	if !rows.IsArray() {
		return nil, nil, fmt.Errorf("decode lead store %s: expected a json array", path)
	}
	rows.ForEach(func(_, row gjson.Result) bool {
		if row.IsObject() {
			s.leads = append(s.leads, decodeRow(row))
		}
		return true
	})
	return s, nil, nil
}

func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads), nil
}

func (s *FileStore) Insert(_ context.Context, leads ...Lead) error {
	if len(leads) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.leads
	next := make([]Lead, 0, len(prev)+len(leads))
	next = append(next, prev...)
	for _, l := range leads {
		next = append(next, normalize(l.Clone()))
	}
	s.leads = next
	if err := s.persistLocked(); err != nil {
		s.leads = prev
		return err
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, id int) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.leads {
		if l.ID == id {
			return l.Clone(), nil
		}
	}
	return Lead{}, &NotFoundError{ID: id}
}

func (s *FileStore) Search(_ context.Context, m Matcher) ([]Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.leads, m), nil
}

func (s *FileStore) Update(_ context.Context, id int, mutate func(*Lead) error) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, l := range s.leads {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Lead{}, &NotFoundError{ID: id}
	}

	prev := s.leads[idx]
	next := prev.Clone()
	if mutate != nil {
		if err := mutate(&next); err != nil {
			return Lead{}, err
		}
	}
	updated := prev.Clone()
	updated.Status = next.Status
	updated.Notes = normalize(next).Notes

	s.leads[idx] = updated
	if err := s.persistLocked(); err != nil {
		s.leads[idx] = prev
		return Lead{}, err
	}
	return updated.Clone(), nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) persistLocked() error {
	payload, err := json.MarshalIndent(s.leads, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lead store: %w", err)
	}
	if err := renameio.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("replace lead store: %w", err)
	}
	return nil
}
