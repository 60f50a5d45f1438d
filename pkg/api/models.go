package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CustomerForm is the HTML form submission. Numeric inputs stay as text so
// the collector can tell a blank field from an invalid one.
type CustomerForm struct {
	Gender           string `schema:"gender"`
	SeniorCitizen    string `schema:"SeniorCitizen"`
	Partner          string `schema:"Partner"`
	Dependents       string `schema:"Dependents"`
	Tenure           string `schema:"tenure"`
	PhoneService     string `schema:"PhoneService"`
	MultipleLines    string `schema:"MultipleLines"`
	InternetService  string `schema:"InternetService"`
	OnlineSecurity   string `schema:"OnlineSecurity"`
	OnlineBackup     string `schema:"OnlineBackup"`
	DeviceProtection string `schema:"DeviceProtection"`
	TechSupport      string `schema:"TechSupport"`
	StreamingTV      string `schema:"StreamingTV"`
	StreamingMovies  string `schema:"StreamingMovies"`
	Contract         string `schema:"Contract"`
	PaperlessBilling string `schema:"PaperlessBilling"`
	PaymentMethod    string `schema:"PaymentMethod"`
	MonthlyCharges   string `schema:"MonthlyCharges"`
	TotalCharges     string `schema:"TotalCharges"`

	ShowDiagnostics bool `schema:"diagnostics"`
}

func (f CustomerForm) Values() map[string]string {
	return map[string]string{
		"gender":           f.Gender,
		"SeniorCitizen":    f.SeniorCitizen,
		"Partner":          f.Partner,
		"Dependents":       f.Dependents,
		"tenure":           f.Tenure,
		"PhoneService":     f.PhoneService,
		"MultipleLines":    f.MultipleLines,
		"InternetService":  f.InternetService,
		"OnlineSecurity":   f.OnlineSecurity,
		"OnlineBackup":     f.OnlineBackup,
		"DeviceProtection": f.DeviceProtection,
		"TechSupport":      f.TechSupport,
		"StreamingTV":      f.StreamingTV,
		"StreamingMovies":  f.StreamingMovies,
		"Contract":         f.Contract,
		"PaperlessBilling": f.PaperlessBilling,
		"PaymentMethod":    f.PaymentMethod,
		"MonthlyCharges":   f.MonthlyCharges,
		"TotalCharges":     f.TotalCharges,
	}
}

// FieldValue is a record value given either as a JSON string or a JSON number.
type FieldValue string

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FieldValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("field value must be a string or a number: %w", err)
		}
		*v = FieldValue(n.String())
	}
	return nil
}

type PredictRequest struct {
	Fields map[string]FieldValue

	Diagnostics bool `json:"Diagnostics,omitempty"`
}

func (r PredictRequest) Values() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for name, value := range r.Fields {
		out[name] = string(value)
	}
	return out
}

type FieldInfo struct {
	Name     string
	Label    string
	Encoding string
	Column   int
	Options  []string `json:"Options,omitempty"`
}

type FieldError struct {
	Field   string
	Label   string
	Reason  string
	Message string
}

type ValidateResponse struct {
	Ready  bool
	Errors []FieldError `json:"Errors,omitempty"`
}

type Diagnostics struct {
	SchemaColumns  int
	InputColumns   int
	MissingColumns []string
	Columns        []string
	Encoded        []float64
	Scaled         []float64
	RawLabel       int
}

type PredictResponse struct {
	Id               uuid.UUID
	Label            int
	Outcome          string
	Headline         string
	Advice           string
	ChurnProbability float64

	Diagnostics *Diagnostics `json:"Diagnostics,omitempty"`
}

type HealthResponse struct {
	Status         string
	SchemaColumns  int
	ClassifierKind string
	Trees          int
}
