// Package taxonomy holds the reference table of coloring subtypes.
//
// Each subtype belongs to a season and carries the undertone, depth and
// contrast a matching person is expected to show. The table is built once,
// validated, and never mutated afterwards; a *Table is safe for concurrent
// use without locking.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownSubtype is returned by Lookup for codes not in the table.
var ErrUnknownSubtype = errors.New("unknown subtype")

// Subtype is one immutable taxonomy entry.
type Subtype struct {
	Code      string    `json:"code"`
	Season    Season    `json:"season"`
	Undertone Undertone `json:"undertone"`
	Depth     Depth     `json:"depth"`
	Contrast  Contrast  `json:"contrast"`
}

// DisplayName turns "water_lily_summer" into "Water Lily Summer".
func (s Subtype) DisplayName() string {
	return DisplayName(s.Code)
}

// DisplayName replaces underscores with spaces and capitalizes each word.
func DisplayName(code string) string {
	// A Caser carries state, so one is built per call.
	return cases.Title(language.English).String(strings.ReplaceAll(code, "_", " "))
}

// Table is an ordered, read-only subtype lookup.
type Table struct {
	entries []Subtype
	byCode  map[string]int
}

// New validates defs and builds a Table preserving declaration order.
// Codes must be unique and every label must come from its enumeration.
func New(defs []Subtype) (*Table, error) {
	t := &Table{
		entries: make([]Subtype, len(defs)),
		byCode:  make(map[string]int, len(defs)),
	}
	copy(t.entries, defs)

	for i, s := range t.entries {
		if s.Code == "" {
			return nil, fmt.Errorf("subtype %d: empty code", i)
		}
		if _, dup := t.byCode[s.Code]; dup {
			return nil, fmt.Errorf("subtype %q: duplicate code", s.Code)
		}
		if !s.Season.Valid() {
			return nil, fmt.Errorf("subtype %q: unknown season %q", s.Code, s.Season)
		}
		if !s.Undertone.Valid() {
			return nil, fmt.Errorf("subtype %q: unknown undertone %q", s.Code, s.Undertone)
		}
		if !s.Depth.Valid() {
			return nil, fmt.Errorf("subtype %q: unknown depth %q", s.Code, s.Depth)
		}
		if !s.Contrast.Valid() {
			return nil, fmt.Errorf("subtype %q: unknown contrast %q", s.Code, s.Contrast)
		}
		t.byCode[s.Code] = i
	}

	return t, nil
}

// Len returns the number of subtypes.
func (t *Table) Len() int { return len(t.entries) }

// At returns the i-th subtype in declaration order.
func (t *Table) At(i int) Subtype { return t.entries[i] }

// All returns a copy of the subtypes in declaration order.
func (t *Table) All() []Subtype {
	out := make([]Subtype, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup finds a subtype by code.
func (t *Table) Lookup(code string) (Subtype, error) {
	i, ok := t.byCode[code]
	if !ok {
		return Subtype{}, fmt.Errorf("%w: %s", ErrUnknownSubtype, code)
	}
	return t.entries[i], nil
}

// BySeason returns the subtypes of one season in declaration order.
func (t *Table) BySeason(season Season) []Subtype {
	var out []Subtype
	for _, s := range t.entries {
		if s.Season == season {
			out = append(out, s)
		}
	}
	return out
}

var defaultTable = mustNew(definitions)

// Default returns the process-wide reference table.
func Default() *Table { return defaultTable }

func mustNew(defs []Subtype) *Table {
	t, err := New(defs)
	if err != nil {
		panic("taxonomy: " + err.Error())
	}
	return t
}
