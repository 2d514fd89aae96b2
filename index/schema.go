package index

import (
	"errors"
	"fmt"
)

// Field names of an index.
const (
	FieldFileName     = "file_name"
	FieldFileContents = "file_contents"
)

// SchemaVersion is the schema version written by this package.
const SchemaVersion = 1

// AnalyzerC is the registry name of the C lexer analyzer.
const AnalyzerC = "c"

// ErrSchemaMismatch is wrapped by every SchemaMismatchError.
var ErrSchemaMismatch = errors.New("index schema mismatch")

// SchemaMismatchError reports an index that cannot be searched with the
// current configuration.
type SchemaMismatchError struct {
	Field  string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrSchemaMismatch, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrSchemaMismatch, e.Field, e.Reason)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// FieldDef defines a single field in the schema.
type FieldDef struct {
	Name      string `json:"name"`
	Analyzer  string `json:"analyzer,omitempty"`
	Stored    bool   `json:"stored"`
	Indexed   bool   `json:"indexed"`
	Positions bool   `json:"positions,omitempty"`
}

// Schema describes the fields of an index and the analyzer that produced
// its postings.
type Schema struct {
	Version     int        `json:"version"`
	Fields      []FieldDef `json:"fields"`
	Fingerprint string     `json:"fingerprint"`
}

// NewSchema returns the schema of a source index: a stored file name and
// stored file contents indexed with positions by the named analyzer.
func NewSchema(analyzer string, a Analyzer) *Schema {
	return &Schema{
		Version: SchemaVersion,
		Fields: []FieldDef{
			{Name: FieldFileName, Stored: true},
			{Name: FieldFileContents, Analyzer: analyzer, Stored: true, Indexed: true, Positions: true},
		},
		Fingerprint: a.Fingerprint(),
	}
}

// Field returns the definition of the named field.
func (s *Schema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Resolve checks the schema against reg and returns the analyzer of the
// contents field. Any difference from what this package would write is a
// *SchemaMismatchError.
func (s *Schema) Resolve(reg *Registry) (Analyzer, error) {
	if s.Version != SchemaVersion {
		return nil, &SchemaMismatchError{Reason: fmt.Sprintf("version %d, want %d", s.Version, SchemaVersion)}
	}

	if f, ok := s.Field(FieldFileName); !ok || !f.Stored {
		return nil, &SchemaMismatchError{Field: FieldFileName, Reason: "missing or not stored"}
	}

	f, ok := s.Field(FieldFileContents)
	if !ok || !f.Stored || !f.Indexed || !f.Positions {
		return nil, &SchemaMismatchError{Field: FieldFileContents, Reason: "missing or not indexed with positions"}
	}

	a, err := reg.Get(f.Analyzer)
	if err != nil {
		return nil, &SchemaMismatchError{Field: FieldFileContents, Reason: err.Error()}
	}

	if fp := a.Fingerprint(); fp != s.Fingerprint {
		return nil, &SchemaMismatchError{
			Field:  FieldFileContents,
			Reason: fmt.Sprintf("analyzer %q changed since the index was built (%s, now %s)", f.Analyzer, s.Fingerprint, fp),
		}
	}

	return a, nil
}
