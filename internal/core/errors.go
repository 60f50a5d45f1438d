package core

import (
	"fmt"
	"strings"
)

type FieldErrorReason string

const (
	ReasonMissing       FieldErrorReason = "missing"
	ReasonInvalidNumber FieldErrorReason = "invalid_number"
	ReasonInvalidOption FieldErrorReason = "invalid_option"
)

type FieldError struct {
	Field   string
	Label   string
	Reason  FieldErrorReason
	Message string
}

func (e FieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is %s", e.Field, e.Reason)
}

// FieldErrors lists every field that kept a record from being ready for inference.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return "record is not ready for inference: " + strings.Join(msgs, "; ")
}

// Visible returns the errors that should be shown next to their inputs. Plain
// missing values only disable the Predict action.
func (e FieldErrors) Visible() FieldErrors {
	var out FieldErrors
	for _, fe := range e {
		if fe.Reason != ReasonMissing {
			out = append(out, fe)
		}
	}
	return out
}

func (e FieldErrors) ByField() map[string]FieldError {
	out := make(map[string]FieldError, len(e))
	for _, fe := range e {
		out[fe.Field] = fe
	}
	return out
}

// EncodingError is returned when a binary-coded field holds a value outside
// the closed binary mapping.
type EncodingError struct {
	Field string
	Value string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot binary-encode field '%s': value '%s' is not one of No/Yes/Female/Male", e.Field, e.Value)
}

// SchemaMismatchError reports a feature vector whose width or columns do not
// match what a fitted artifact expects.
type SchemaMismatchError struct {
	Stage    string
	Expected int
	Actual   int
	Missing  []string
	Extra    []string

	OutOfOrder bool
}

func (e *SchemaMismatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "feature mismatch at %s stage: expected %d columns, got %d", e.Stage, e.Expected, e.Actual)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&sb, "; missing columns: [%s]", strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&sb, "; unexpected columns: [%s]", strings.Join(e.Extra, ", "))
	}
	if e.OutOfOrder {
		sb.WriteString("; columns are not in fitted order")
	}
	return sb.String()
}

// diffColumns returns the names in expected but not actual, and in actual but not expected.
func diffColumns(expected, actual []string) (missing, extra []string) {
	have := make(map[string]struct{}, len(actual))
	for _, c := range actual {
		have[c] = struct{}{}
	}
	want := make(map[string]struct{}, len(expected))
	for _, c := range expected {
		want[c] = struct{}{}
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	for _, c := range actual {
		if _, ok := want[c]; !ok {
			extra = append(extra, c)
		}
	}
	return missing, extra
}
