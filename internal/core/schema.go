package core

import (
	"fmt"
	"log/slog"
	"slices"
)

type ColumnKind string

const (
	ColumnNumeric  ColumnKind = "numeric"
	ColumnBinary   ColumnKind = "binary"
	ColumnOneHot   ColumnKind = "onehot"
	ColumnUnmapped ColumnKind = "unmapped"
)

// Column is one entry of the classifier's trained feature layout.
type Column struct {
	Name     string
	Kind     ColumnKind
	Field    string
	Category string
}

// Schema is the ordered list of feature columns the scaler and classifier
// were fitted on. It is built once at load time and never modified.
type Schema struct {
	columns []Column
	names   []string
	index   map[string]int
}

func NewSchema(names []string, catalog *Catalog) (*Schema, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("schema has no columns")
	}

	producible := make(map[string]Column)
	for _, field := range catalog.fields {
		switch field.Encoding {
		case EncodingNumeric:
			producible[field.Name] = Column{Name: field.Name, Kind: ColumnNumeric, Field: field.Name}
		case EncodingBinary:
			producible[field.Name] = Column{Name: field.Name, Kind: ColumnBinary, Field: field.Name}
		case EncodingOneHot:
			for _, opt := range field.Options {
				name := OneHotColumn(field.Name, opt)
				producible[name] = Column{Name: name, Kind: ColumnOneHot, Field: field.Name, Category: opt}
			}
		}
	}

	schema := &Schema{
		columns: make([]Column, 0, len(names)),
		names:   slices.Clone(names),
		index:   make(map[string]int, len(names)),
	}

	var unmapped []string
	for i, name := range names {
		if _, dup := schema.index[name]; dup {
			return nil, fmt.Errorf("duplicate column '%s' in schema", name)
		}
		schema.index[name] = i

		col, ok := producible[name]
		if !ok {
			col = Column{Name: name, Kind: ColumnUnmapped}
			unmapped = append(unmapped, name)
		}
		schema.columns = append(schema.columns, col)
	}

	if len(unmapped) > 0 {
		slog.Warn("schema columns cannot be produced by any form field and will always be zero", "columns", unmapped)
	}

	return schema, nil
}

func (s *Schema) Len() int {
	return len(s.columns)
}

func (s *Schema) Names() []string {
	return slices.Clone(s.names)
}

func (s *Schema) Columns() []Column {
	return slices.Clone(s.columns)
}

func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *Schema) Unmapped() []string {
	var out []string
	for _, c := range s.columns {
		if c.Kind == ColumnUnmapped {
			out = append(out, c.Name)
		}
	}
	return out
}
