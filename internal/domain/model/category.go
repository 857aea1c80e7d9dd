package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CategoryState enumerates the states a ServiceCategory can be in.
type CategoryState int

const (
	CategoryUnset CategoryState = iota
	CategoryKnown
	CategoryInvalid
)

// ServiceCategory is a display-only task tag coming from the project backend.
// It is Unset, Known(id, label) or Invalid(raw label); construct it with the
// helpers below and switch on State at every consumption point.
type ServiceCategory struct {
	state CategoryState
	id    int
	label string
}

// UnsetCategory returns a category with no value.
func UnsetCategory() ServiceCategory { return ServiceCategory{} }

// KnownCategory returns a category resolved against the backend.
func KnownCategory(id int, label string) ServiceCategory {
	return ServiceCategory{state: CategoryKnown, id: id, label: label}
}

// InvalidCategory returns a category whose raw label could not be resolved.
func InvalidCategory(raw string) ServiceCategory {
	return ServiceCategory{state: CategoryInvalid, label: raw}
}

// State reports which variant c holds.
func (c ServiceCategory) State() CategoryState { return c.state }

// Known returns the id and label when c is Known.
func (c ServiceCategory) Known() (int, string, bool) {
	if c.state != CategoryKnown {
		return 0, "", false
	}
	return c.id, c.label, true
}

// Display renders c for reports and prompts.
func (c ServiceCategory) Display() string {
	switch c.state {
	case CategoryUnset:
		return "Not specified"
	case CategoryKnown:
		return c.label
	case CategoryInvalid:
		return fmt.Sprintf("%s (unrecognized)", c.label)
	default:
		panic(fmt.Sprintf("model: unhandled category state %d", c.state))
	}
}

// categoryWire is the JSON shape: {"id": 3, "label": "Infographic"} for Known,
// {"label": "??"} for Invalid, null or absent for Unset.
type categoryWire struct {
	ID    *int   `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c ServiceCategory) MarshalJSON() ([]byte, error) {
	switch c.state {
	case CategoryUnset:
		return []byte("null"), nil
	case CategoryKnown:
		id := c.id
		return json.Marshal(categoryWire{ID: &id, Label: c.label})
	case CategoryInvalid:
		return json.Marshal(categoryWire{Raw: c.label})
	default:
		return nil, fmt.Errorf("model: unhandled category state %d", c.state)
	}
}

// UnmarshalJSON implements json.Unmarshaler. A bare string is accepted as an
// unresolved label.
func (c *ServiceCategory) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*c = UnsetCategory()
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			*c = UnsetCategory()
			return nil
		}
		*c = InvalidCategory(raw)
		return nil
	}
	var w categoryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.ID != nil:
		*c = KnownCategory(*w.ID, w.Label)
	case w.Raw != "":
		*c = InvalidCategory(w.Raw)
	case w.Label != "":
		*c = InvalidCategory(w.Label)
	default:
		*c = UnsetCategory()
	}
	return nil
}
