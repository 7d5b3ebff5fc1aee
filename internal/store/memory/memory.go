// Package memory is an in-process document store for development and tests.
// Data lives only as long as the process.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gereecole/internal/core"
	"github.com/JonMunkholm/gereecole/internal/store"
)

// Entry is one stored record.
type Entry struct {
	ID     string
	Path   string
	Record core.Record
}

// Store keeps records per tenant in insertion order.
type Store struct {
	mu      sync.RWMutex
	tenants map[string][]Entry

	// FailWith, when set, is consulted before every insert.
	FailWith func(rec core.Record) error
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{tenants: make(map[string][]Entry)}
}

// CreateRecord stores a copy of rec and returns its new id.
func (s *Store) CreateRecord(ctx context.Context, tenantID string, rec core.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.FailWith != nil {
		if err := s.FailWith(rec); err != nil {
			return "", err
		}
	}

	id := uuid.New().String()
	stored := rec
	stored.Doc = maps.Clone(rec.Doc)
	if rec.Parent != nil {
		parent := *rec.Parent
		stored.Parent = &parent
	}

	s.mu.Lock()
	s.tenants[tenantID] = append(s.tenants[tenantID], Entry{ID: id, Path: rec.Path(), Record: stored})
	s.mu.Unlock()

	return id, nil
}

// ListClasses returns the tenant's classes in insertion order.
func (s *Store) ListClasses(_ context.Context, tenantID string) ([]core.ClassRef, error) {
	var out []core.ClassRef
	for _, e := range s.Records(tenantID, store.ClassesCollection) {
		out = append(out, store.ClassFromDoc(e.ID, e.Record.Doc))
	}
	return out, nil
}

// ListStudents returns the tenant's students in insertion order.
func (s *Store) ListStudents(_ context.Context, tenantID string) ([]core.StudentRef, error) {
	var out []core.StudentRef
	for _, e := range s.Records(tenantID, store.StudentsCollection) {
		out = append(out, store.StudentFromDoc(e.ID, e.Record.Doc))
	}
	return out, nil
}

// Records returns the tenant's entries stored under path,
// e.g. "students" or "students/<id>/grades".
func (s *Store) Records(tenantID, path string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.tenants[tenantID] {
		if e.Path == path {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many records the tenant has in total.
func (s *Store) Count(tenantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants[tenantID])
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all data.
func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	s.tenants = make(map[string][]Entry)
	s.mu.Unlock()
	return nil
}
