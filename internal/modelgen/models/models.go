package models

import (
	"fmt"
	"time"
)

// TypeKind is the declared form of a model type
type TypeKind string

const (
	KindClass TypeKind = "class"
	KindEnum  TypeKind = "enum"
)

// TypeDefinition is one model declaration discovered in the models directory
type TypeDefinition struct {
	RawName      string   `json:"raw_name"`
	Kind         TypeKind `json:"kind"`
	VersionToken string   `json:"version_token,omitempty"`
	Name         string   `json:"name"`      // normalized type name
	Container    string   `json:"container"` // storage container name, empty if none
	SourceFile   string   `json:"source_file"`
}

// Versioned reports whether the raw name carried a version token
func (t TypeDefinition) Versioned() bool {
	return t.VersionToken != ""
}

// RenameMap maps normalized names to the original they were derived from.
// Keys keep insertion order.
type RenameMap struct {
	keys      []string
	originals map[string]string
}

func NewRenameMap() *RenameMap {
	return &RenameMap{originals: make(map[string]string)}
}

// Add records normalized → original. It returns false, and changes nothing,
// when normalized is already taken.
func (m *RenameMap) Add(normalized, original string) bool {
	if _, exists := m.originals[normalized]; exists {
		return false
	}
	m.keys = append(m.keys, normalized)
	m.originals[normalized] = original
	return true
}

// Original returns the original name recorded for normalized
func (m *RenameMap) Original(normalized string) (string, bool) {
	original, ok := m.originals[normalized]
	return original, ok
}

// Keys returns normalized names in insertion order
func (m *RenameMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *RenameMap) Len() int {
	return len(m.keys)
}

// Removal is a collision loser scheduled for deletion
type Removal struct {
	Original string `json:"original"`
	LostTo   string `json:"lost_to"` // normalized name owned by the winner
}

// RemovalSet holds collision losers in discovery order
type RemovalSet struct {
	items []Removal
	index map[string]struct{}
}

func NewRemovalSet() *RemovalSet {
	return &RemovalSet{index: make(map[string]struct{})}
}

func (s *RemovalSet) Add(original, lostTo string) {
	if _, exists := s.index[original]; exists {
		return
	}
	s.index[original] = struct{}{}
	s.items = append(s.items, Removal{Original: original, LostTo: lostTo})
}

func (s *RemovalSet) Items() []Removal {
	return append([]Removal(nil), s.items...)
}

func (s *RemovalSet) Len() int {
	return len(s.items)
}

// ConverterSpec describes the converter pair generated for one enum
type ConverterSpec struct {
	EnumName string `json:"enum_name"`
}

func (c ConverterSpec) ReadingName() string { return c.EnumName + "ReadingConverter" }
func (c ConverterSpec) WritingName() string { return c.EnumName + "WritingConverter" }

// RegistrationLines are the two lines added to the custom conversions block
func (c ConverterSpec) RegistrationLines(indent string) []string {
	return []string{
		fmt.Sprintf("%snew %s(),", indent, c.ReadingName()),
		fmt.Sprintf("%snew %s(),", indent, c.WritingName()),
	}
}

// Warning is a non-fatal problem found while transforming one file
type Warning struct {
	Phase   string `json:"phase"`
	File    string `json:"file"`
	Message string `json:"message"`
}

// Report summarizes one pipeline run
type Report struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Files         int       `json:"files"`
	Renamed       int       `json:"renamed"`
	Collisions    int       `json:"collisions"`
	Annotated     int       `json:"annotated"`
	Removed       int       `json:"removed"`
	Converters    int       `json:"converters"`
	Registrations int       `json:"registrations"`
	Warnings      []Warning `json:"warnings,omitempty"`
}

// Warn appends a warning
func (r *Report) Warn(phase, file, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		File:    file,
		Message: fmt.Sprintf(format, args...),
	})
}
