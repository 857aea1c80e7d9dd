// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"unicode"
)

// DesignerProfile is an immutable roster snapshot of one designer.
// Optional capability attributes are nil when the roster source has no value.
type DesignerProfile struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Role      string   `json:"role,omitempty" yaml:"role,omitempty"`
	Tools     []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	Outputs   []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
}

// Key returns the identity used for de-duplication and score matching.
// Profiles without an ID fall back to their normalized name.
func (p DesignerProfile) Key() string {
	if id := strings.TrimSpace(p.ID); id != "" {
		return id
	}
	return NormalizeName(p.Name)
}

// NormalizeName lowercases s, keeps letters, digits and spaces, and collapses
// runs of whitespace.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ScoredDesigner pairs a profile with its task-fit score.
type ScoredDesigner struct {
	Designer  DesignerProfile `json:"designer"`
	Score     float64         `json:"score"`
	Rationale string          `json:"rationale"`
	// Defaulted marks scores that were not returned by the scorer.
	Defaulted bool `json:"defaulted"`
}
