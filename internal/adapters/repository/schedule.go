package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

// Schedule is the YAML interchange form of a scheduling-system snapshot.
//
//	employees:
//	  - id: emp-1
//	    name: Lina Haddad
//	    commitments:
//	      - start: 2026-03-02T09:00:00Z
//	        end: 2026-03-02T17:00:00Z
//	        work_item_id: T-118
//	        work_item_name: Ramadan campaign key visual
//	        deadline: 2026-03-06
type Schedule struct {
	Employees []ScheduledEmployee `yaml:"employees"`
}

// ScheduledEmployee is one employee and their commitments.
type ScheduledEmployee struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Commitments []ScheduledCommitment `yaml:"commitments"`
}

// ScheduledCommitment is one commitment. Deadline may be a date or a full
// timestamp; dates are read as midnight UTC.
type ScheduledCommitment struct {
	Start        time.Time  `yaml:"start"`
	End          time.Time  `yaml:"end"`
	WorkItemID   string     `yaml:"work_item_id"`
	WorkItemName string     `yaml:"work_item_name"`
	Deadline     *time.Time `yaml:"deadline"`
}

// LoadSchedule reads a Schedule from a YAML file.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return ParseSchedule(data)
}

// ParseSchedule decodes a Schedule from YAML.
func ParseSchedule(data []byte) (*Schedule, error) {
	var s Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return &s, nil
}

// Apply writes every employee and commitment in s into store. It stops at
// the first invalid record.
func (s *Schedule) Apply(ctx context.Context, store Store) (int, error) {
	var added int
	for _, e := range s.Employees {
		if err := store.UpsertEmployee(ctx, Employee{ID: e.ID, Name: e.Name}); err != nil {
			return added, err
		}
		for _, c := range e.Commitments {
			err := store.AddCommitment(ctx, e.ID, model.Commitment{
				Start:        c.Start,
				End:          c.End,
				WorkItemID:   c.WorkItemID,
				WorkItemName: c.WorkItemName,
				Deadline:     c.Deadline,
			})
			if err != nil {
				return added, fmt.Errorf("employee %s: %w", e.ID, err)
			}
			added++
		}
	}
	return added, nil
}
