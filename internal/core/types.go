// Package core provides the business logic for spreadsheet import operations.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies what an import creates. The set is closed.
type Kind string

const (
	KindStudents Kind = "students"
	KindTeachers Kind = "teachers"
	KindGrades   Kind = "grades"
)

// Kinds lists every import kind in display order.
var Kinds = []Kind{KindStudents, KindTeachers, KindGrades}

// ParseKind converts user input to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Column describes one expected spreadsheet column.
type Column struct {
	Header      string `json:"header"`      // Exact header expected in the file
	Label       string `json:"label"`       // French display name
	Required    bool   `json:"required"`    // Column must exist and cells must be filled
	Description string `json:"description"` // Shown in the downloadable template

	// MissingMessage overrides the row error used when a required cell is blank.
	MissingMessage string `json:"-"`
}

// missingMessage returns the row error for a blank required cell.
func (c Column) missingMessage() string {
	if c.MissingMessage != "" {
		return c.MissingMessage
	}
	return fmt.Sprintf("Le champ obligatoire %q (%s) est vide", c.Label, c.Header)
}

// ImportTemplate is the static column schema of one import kind.
type ImportTemplate struct {
	Kind       Kind     `json:"kind"`
	Label      string   `json:"label"`
	Collection string   `json:"collection"`
	Columns    []Column `json:"columns"`
}

// Headers returns every column header in template order.
func (t ImportTemplate) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Header
	}
	return out
}

// RequiredHeaders returns the headers that must be present in an upload.
func (t ImportTemplate) RequiredHeaders() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Required {
			out = append(out, c.Header)
		}
	}
	return out
}

// CellKind tells how a decoded cell was typed in the source file.
type CellKind int

const (
	CellUndefined CellKind = iota
	CellText
	CellNumber
)

// Cell is one decoded spreadsheet value.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell wraps a string value.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// NumberCell wraps a numeric value read from a typed workbook cell.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// IsEmpty reports whether the cell is undefined or blank text.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellNumber:
		return false
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return true
	}
}

// String returns the trimmed textual form of the cell.
func (c Cell) String() string {
	if c.Kind == CellUndefined {
		return ""
	}
	return strings.TrimSpace(c.Text)
}

// RawRow maps a column header to its cell, one per data row.
type RawRow map[string]Cell

// Get returns the cell under header, undefined when absent.
func (r RawRow) Get(header string) Cell {
	return r[header]
}

// Text returns the trimmed text under header.
func (r RawRow) Text(header string) string {
	return r[header].String()
}

// IsEmpty reports whether the row has no keys or only blank values.
func (r RawRow) IsEmpty() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Sheet is the decoded content of an uploaded file.
type Sheet struct {
	Name    string   // Worksheet name (empty for CSV)
	Headers []string // Trimmed header row, in file order
	Rows    []RawRow // Data rows, in file order
}

// Document is the plain object handed to the document store.
type Document map[string]any

// ParentRef scopes a sub-record under an existing record.
type ParentRef struct {
	Collection string
	ID         string
}

// Record is a fully-formed object ready to be persisted.
type Record struct {
	Collection string
	Parent     *ParentRef // nil for top-level records
	Doc        Document
}

// Path returns the slash-joined location of the record's collection.
func (r Record) Path() string {
	if r.Parent == nil {
		return r.Collection
	}
	return r.Parent.Collection + "/" + r.Parent.ID + "/" + r.Collection
}

// ClassRef is an existing class a student row can be attached to.
type ClassRef struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// StudentRef is an existing student a grade row can be attached to.
type StudentRef struct {
	ID        string `json:"id" bson:"_id"`
	Matricule string `json:"matricule" bson:"matricule"`
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
}

// RowError is one row-local failure. Row is the spreadsheet line number.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportOutcome is the aggregate report of one import run.
type ImportOutcome struct {
	RunID        string     `json:"runId"`
	Kind         Kind       `json:"kind"`
	FileName     string     `json:"fileName"`
	TotalRows    int        `json:"totalRows"`
	SuccessCount int        `json:"successCount"`
	ErrorCount   int        `json:"errorCount"`
	SkippedCount int        `json:"skippedCount"`
	Errors       []RowError `json:"errors"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   time.Time  `json:"finishedAt"`
}

// Duration returns how long the run took.
func (o *ImportOutcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// clone returns a deep copy safe to hand to other goroutines.
func (o *ImportOutcome) clone() *ImportOutcome {
	if o == nil {
		return nil
	}
	c := *o
	c.Errors = append([]RowError(nil), o.Errors...)
	return &c
}

// RunPhase indicates the current stage of an import run.
type RunPhase string

const (
	PhaseIdle       RunPhase = "idle"
	PhaseValidating RunPhase = "validating"
	PhaseImporting  RunPhase = "importing"
	PhaseComplete   RunPhase = "complete"
	PhaseFailed     RunPhase = "failed"
)

// Done reports whether the phase is terminal.
func (p RunPhase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// Progress represents the current state of an import run.
type Progress struct {
	RunID      string   `json:"runId"`
	Kind       Kind     `json:"kind"`
	Phase      RunPhase `json:"phase"`
	FileName   string   `json:"fileName"`
	TotalRows  int      `json:"totalRows"`
	CurrentRow int      `json:"currentRow"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Error      string   `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// Percent returns the progress as a percentage (0-100).
func (p Progress) Percent() int {
	if p.TotalRows > 0 {
		return (p.CurrentRow * 100) / p.TotalRows
	}
	if p.Phase == PhaseComplete {
		return 100
	}
	return 0
}

// ProgressFunc is called after every processed row.
type ProgressFunc func(Progress)
