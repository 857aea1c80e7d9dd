// Package repository holds the scheduling-system stores the engine reads
// designer commitments from.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/SFZPL/tms-sub000/internal/domain/availability"
	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

// Employee is a person known to the scheduling system.
type Employee struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Store provides read/write access to the scheduling state. The engine only
// uses the read half; writes exist for imports and tests.
type Store interface {
	availability.CommitmentSource

	// UpsertEmployee creates or renames an employee.
	UpsertEmployee(ctx context.Context, e Employee) error
	// AddCommitment records an interval for an existing employee.
	// Returns ErrUnknownEmployee if the employee does not exist.
	AddCommitment(ctx context.Context, employeeID string, c model.Commitment) error
	// Employees lists every employee ordered by ID.
	Employees(ctx context.Context) ([]Employee, error)
	// Close releases resources held by the store.
	Close() error
}

// MatchEmployee finds the employee whose normalized name equals name,
// falling back to the first whose normalized name contains it. Employees
// are scanned in the given order.
func MatchEmployee(employees []Employee, name string) (Employee, bool) {
	want := model.NormalizeName(name)
	if want == "" {
		return Employee{}, false
	}
	for _, e := range employees {
		if model.NormalizeName(e.Name) == want {
			return e, true
		}
	}
	for _, e := range employees {
		if strings.Contains(model.NormalizeName(e.Name), want) {
			return e, true
		}
	}
	return Employee{}, false
}

func validateEmployee(e Employee) error {
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidEmployee)
	}
	return nil
}

func validateCommitment(c model.Commitment) error {
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidCommitment)
	}
	if !c.End.After(c.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidCommitment, c.End, c.Start)
	}
	return nil
}
