package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	employees   map[string]Employee
	commitments map[string][]model.Commitment
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees:   make(map[string]Employee),
		commitments: make(map[string][]model.Commitment),
	}
}

// UpsertEmployee implements Store.
func (s *MemoryStore) UpsertEmployee(_ context.Context, e Employee) error {
	if err := validateEmployee(e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	return nil
}

// AddCommitment implements Store.
func (s *MemoryStore) AddCommitment(_ context.Context, employeeID string, c model.Commitment) error {
	if err := validateCommitment(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[employeeID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEmployee, employeeID)
	}
	s.commitments[employeeID] = append(s.commitments[employeeID], c)
	return nil
}

// Employees implements Store.
func (s *MemoryStore) Employees(_ context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Employee) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// ResolveDesignerID implements availability.CommitmentSource.
func (s *MemoryStore) ResolveDesignerID(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	employees, _ := s.Employees(ctx)
	e, ok := MatchEmployee(employees, name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e.ID, nil
}

// ListCommitments implements availability.CommitmentSource. The returned
// slice is a copy ordered by start.
func (s *MemoryStore) ListCommitments(ctx context.Context, designerID string) ([]model.Commitment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.employees[designerID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEmployee, designerID)
	}
	out := slices.Clone(s.commitments[designerID])
	slices.SortStableFunc(out, func(a, b model.Commitment) int { return a.Start.Compare(b.Start) })
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
