package core

import (
	"fmt"
	"slices"
)

// Outcome is the human readable form of a Label.
type Outcome struct {
	Summary  string
	Headline string
	Advice   string
}

var outcomes = map[Label]Outcome{
	LabelStay: {
		Summary:  "likely to stay",
		Headline: "Customer is likely to stay.",
		Advice:   "Great! Keep focusing on customer engagement.",
	},
	LabelChurn: {
		Summary:  "likely to churn",
		Headline: "Customer is likely to churn.",
		Advice:   "Consider offering retention incentives or better support.",
	},
}

func DescribeLabel(label Label) (Outcome, error) {
	outcome, ok := outcomes[label]
	if !ok {
		return Outcome{}, fmt.Errorf("classifier returned unknown label %d", label)
	}
	return outcome, nil
}

// Diagnostics exposes the intermediate state of one inference.
type Diagnostics struct {
	SchemaColumns  int
	InputColumns   int
	MissingColumns []string
	Encoded        FeatureVector
	Scaled         ScaledFeatureVector
	RawLabel       Label
}

type Prediction struct {
	Label            Label
	Outcome          Outcome
	ChurnProbability float64
	Diagnostics      *Diagnostics
}

// Predictor holds the loaded artifacts. It is immutable once built and safe
// to share between concurrent requests; every call works on its own vectors.
type Predictor struct {
	catalog    *Catalog
	schema     *Schema
	scaler     Scaler
	classifier Classifier
}

func NewPredictor(catalog *Catalog, schema *Schema, scaler Scaler, classifier Classifier) *Predictor {
	return &Predictor{catalog: catalog, schema: schema, scaler: scaler, classifier: classifier}
}

func (p *Predictor) Catalog() *Catalog {
	return p.catalog
}

func (p *Predictor) Schema() *Schema {
	return p.schema
}

func (p *Predictor) Scaler() Scaler {
	return p.scaler
}

func (p *Predictor) Classifier() Classifier {
	return p.classifier
}

// Collect validates raw input against the predictor's field catalog.
func (p *Predictor) Collect(values map[string]string) (*Record, FieldErrors) {
	return Collect(p.catalog, values)
}

// Predict runs encode, scale and classify on one complete record. Failures
// come back as *EncodingError, *SchemaMismatchError or FieldErrors, wrapped
// with the stage that produced them.
func (p *Predictor) Predict(record *Record, withDiagnostics bool) (*Prediction, error) {
	encoded, err := Encode(record, p.schema)
	if err != nil {
		return nil, fmt.Errorf("error encoding record: %w", err)
	}

	scaled, err := p.scaler.Transform(encoded)
	if err != nil {
		return nil, fmt.Errorf("error scaling features: %w", err)
	}

	batch := []ScaledFeatureVector{scaled}

	labels, err := p.classifier.Predict(batch)
	if err != nil {
		return nil, fmt.Errorf("error running classifier: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("classifier returned no prediction")
	}
	label := labels[0]

	outcome, err := DescribeLabel(label)
	if err != nil {
		return nil, err
	}

	probas, err := p.classifier.PredictProba(batch)
	if err != nil {
		return nil, fmt.Errorf("error computing class probabilities: %w", err)
	}

	prediction := &Prediction{Label: label, Outcome: outcome}
	if i := slices.Index(p.classifier.Classes(), LabelChurn); i >= 0 && len(probas) > 0 {
		prediction.ChurnProbability = probas[0][i]
	}

	if withDiagnostics {
		missing, _ := diffColumns(p.schema.Names(), encoded.Columns)
		prediction.Diagnostics = &Diagnostics{
			SchemaColumns:  p.schema.Len(),
			InputColumns:   encoded.Len(),
			MissingColumns: missing,
			Encoded:        encoded,
			Scaled:         scaled,
			RawLabel:       label,
		}
	}

	return prediction, nil
}
