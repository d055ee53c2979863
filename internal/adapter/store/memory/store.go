// Package memory is a process-local record store, used for demos, tests, and
// the default STORE_DRIVER.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

// Store keeps records in a map keyed by id and remembers insertion order.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.CaseRecord
	order   []string
}

// New returns a store seeded with records. Seed records without an id are assigned one.
func New(seed ...domain.CaseRecord) *Store {
	s := &Store{records: make(map[string]domain.CaseRecord, len(seed))}
	for _, r := range seed {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, ok := s.records[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
	}
	return s
}

// FetchAll returns every record in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]domain.CaseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: fetch all: %w: %w", domain.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CaseRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

// Create stores record under a fresh id and returns the id.
func (s *Store) Create(ctx context.Context, record domain.CaseRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("memory: create: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if err := record.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = uuid.NewString()
	s.records[record.ID] = record
	s.order = append(s.order, record.ID)
	return record.ID, nil
}

// Update replaces the record with id.
func (s *Store) Update(ctx context.Context, id string, record domain.CaseRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: update: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("memory: update %s: %w", id, domain.ErrNotFound)
	}
	record.ID = id
	s.records[id] = record
	return nil
}

// Delete removes the record with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: delete: %w: %w", domain.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("memory: delete %s: %w", id, domain.ErrNotFound)
	}
	delete(s.records, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}
