package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one customer's input, keyed by field name. It is built per
// submission and discarded after a single inference.
type Record struct {
	catalog    *Catalog
	categories map[string]string
	numbers    map[string]float64
}

// Collect resolves raw form values against the catalog. Every field that is
// empty or fails validation is reported; such fields stay unset on the
// returned record, which is then not Ready.
func Collect(catalog *Catalog, values map[string]string) (*Record, FieldErrors) {
	record := &Record{
		catalog:    catalog,
		categories: make(map[string]string),
		numbers:    make(map[string]float64),
	}

	var errs FieldErrors
	for _, field := range catalog.fields {
		raw := strings.TrimSpace(values[field.Name])

		if raw == "" {
			errs = append(errs, FieldError{
				Field:   field.Name,
				Label:   field.Label,
				Reason:  ReasonMissing,
				Message: fmt.Sprintf("%s is required.", field.Label),
			})
			continue
		}

		if field.IsNumeric() {
			num, err := parseNumber(raw)
			if err != nil {
				errs = append(errs, FieldError{
					Field:   field.Name,
					Label:   field.Label,
					Reason:  ReasonInvalidNumber,
					Message: fmt.Sprintf("Invalid input for %s. Please enter a valid number.", field.Label),
				})
				continue
			}
			record.numbers[field.Name] = num
			continue
		}

		if !field.HasOption(raw) {
			errs = append(errs, FieldError{
				Field:   field.Name,
				Label:   field.Label,
				Reason:  ReasonInvalidOption,
				Message: fmt.Sprintf("'%s' is not a valid choice for %s.", raw, field.Label),
			})
			continue
		}
		record.categories[field.Name] = raw
	}

	return record, errs
}

func parseNumber(raw string) (float64, error) {
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, fmt.Errorf("value %q is not a finite number", raw)
	}
	return num, nil
}

func (r *Record) Category(field string) (string, bool) {
	v, ok := r.categories[field]
	return v, ok
}

func (r *Record) Number(field string) (float64, bool) {
	v, ok := r.numbers[field]
	return v, ok
}

// Missing lists the catalog fields that have no resolved value.
func (r *Record) Missing() []string {
	var missing []string
	for _, field := range r.catalog.fields {
		if field.IsNumeric() {
			if _, ok := r.numbers[field.Name]; !ok {
				missing = append(missing, field.Name)
			}
		} else if _, ok := r.categories[field.Name]; !ok {
			missing = append(missing, field.Name)
		}
	}
	return missing
}

// Ready reports whether every field resolved to a value.
func (r *Record) Ready() bool {
	return len(r.Missing()) == 0
}
