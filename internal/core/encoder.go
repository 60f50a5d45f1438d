package core

import (
	"slices"
)

// FeatureVector is an encoded record laid out exactly as the schema.
type FeatureVector struct {
	Columns []string
	Values  []float64
}

func (v FeatureVector) Len() int {
	return len(v.Values)
}

// Get returns the value of a named column.
func (v FeatureVector) Get(column string) (float64, bool) {
	i := slices.Index(v.Columns, column)
	if i < 0 {
		return 0, false
	}
	return v.Values[i], true
}

// frame is a single encoded row before alignment. Like a one-row dataframe
// after dummy encoding, it only holds the columns this record produced.
type frame map[string]float64

// Encode turns a complete record into a schema-aligned feature vector. The
// record is first encoded on its own, then reindexed onto the schema; the
// second step is what guarantees every schema column is present.
func Encode(record *Record, schema *Schema) (FeatureVector, error) {
	if missing := record.Missing(); len(missing) > 0 {
		errs := make(FieldErrors, 0, len(missing))
		for _, name := range missing {
			field, _ := record.catalog.Field(name)
			errs = append(errs, FieldError{Field: name, Label: field.Label, Reason: ReasonMissing})
		}
		return FeatureVector{}, errs
	}

	f, err := encodeRecord(record)
	if err != nil {
		return FeatureVector{}, err
	}

	return f.reindex(schema), nil
}

// encodeRecord applies binary coding to the binary fields, passes numeric
// fields through, and emits one column per observed category for the rest.
func encodeRecord(record *Record) (frame, error) {
	f := make(frame, record.catalog.Len())

	for _, field := range record.catalog.fields {
		switch field.Encoding {
		case EncodingNumeric:
			f[field.Name] = record.numbers[field.Name]

		case EncodingBinary:
			value := record.categories[field.Name]
			code, ok := binaryCodes[value]
			if !ok {
				return nil, &EncodingError{Field: field.Name, Value: value}
			}
			f[field.Name] = code

		case EncodingOneHot:
			f[OneHotColumn(field.Name, record.categories[field.Name])] = 1
		}
	}

	return f, nil
}

// reindex aligns the frame to the schema: schema order, zero for absent
// columns, and anything the schema does not name is dropped.
func (f frame) reindex(schema *Schema) FeatureVector {
	vec := FeatureVector{
		Columns: schema.Names(),
		Values:  make([]float64, schema.Len()),
	}
	for i, name := range vec.Columns {
		vec.Values[i] = f[name]
	}
	return vec
}
