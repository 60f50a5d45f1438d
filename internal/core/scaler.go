package core

import (
	"fmt"
	"slices"
)

// ScaledFeatureVector is a FeatureVector after the fitted per-column transform.
type ScaledFeatureVector struct {
	Columns []string
	Values  []float64
}

type Scaler interface {
	Transform(vec FeatureVector) (ScaledFeatureVector, error)

	NumFeatures() int
}

// StandardScaler standardizes each column with the mean and scale it was
// fitted with. An empty Mean or Scale means centering or scaling was disabled
// at fit time.
type StandardScaler struct {
	FeatureNames []string  `json:"feature_names_in,omitempty"`
	NFeatures    int       `json:"n_features_in"`
	Mean         []float64 `json:"mean,omitempty"`
	Scale        []float64 `json:"scale,omitempty"`
}

var _ Scaler = (*StandardScaler)(nil)

func (s *StandardScaler) validate() error {
	if s.NFeatures == 0 {
		s.NFeatures = max(len(s.Mean), len(s.Scale), len(s.FeatureNames))
	}
	if s.NFeatures == 0 {
		return fmt.Errorf("standard scaler has no fitted features")
	}
	if len(s.Mean) > 0 && len(s.Mean) != s.NFeatures {
		return fmt.Errorf("standard scaler mean has %d entries, expected %d", len(s.Mean), s.NFeatures)
	}
	if len(s.Scale) > 0 && len(s.Scale) != s.NFeatures {
		return fmt.Errorf("standard scaler scale has %d entries, expected %d", len(s.Scale), s.NFeatures)
	}
	if len(s.FeatureNames) > 0 && len(s.FeatureNames) != s.NFeatures {
		return fmt.Errorf("standard scaler names %d features, expected %d", len(s.FeatureNames), s.NFeatures)
	}
	return nil
}

func (s *StandardScaler) NumFeatures() int {
	return s.NFeatures
}

func (s *StandardScaler) Transform(vec FeatureVector) (ScaledFeatureVector, error) {
	if err := checkColumns("scale", s.NFeatures, s.FeatureNames, vec.Columns, len(vec.Values)); err != nil {
		return ScaledFeatureVector{}, err
	}

	out := make([]float64, len(vec.Values))
	for j, x := range vec.Values {
		if len(s.Mean) > 0 {
			x -= s.Mean[j]
		}
		// Constant columns are fitted with a zero scale and left unscaled.
		if len(s.Scale) > 0 && s.Scale[j] != 0 {
			x /= s.Scale[j]
		}
		out[j] = x
	}

	return ScaledFeatureVector{Columns: slices.Clone(vec.Columns), Values: out}, nil
}

// MinMaxScaler maps each column with x*scale + min, using the fitted
// per-column scale and offset.
type MinMaxScaler struct {
	FeatureNames []string  `json:"feature_names_in,omitempty"`
	NFeatures    int       `json:"n_features_in"`
	Min          []float64 `json:"min"`
	Scale        []float64 `json:"scale"`
}

var _ Scaler = (*MinMaxScaler)(nil)

func (s *MinMaxScaler) validate() error {
	if s.NFeatures == 0 {
		s.NFeatures = len(s.Scale)
	}
	if s.NFeatures == 0 {
		return fmt.Errorf("min-max scaler has no fitted features")
	}
	if len(s.Min) != s.NFeatures || len(s.Scale) != s.NFeatures {
		return fmt.Errorf("min-max scaler has %d min and %d scale entries, expected %d", len(s.Min), len(s.Scale), s.NFeatures)
	}
	if len(s.FeatureNames) > 0 && len(s.FeatureNames) != s.NFeatures {
		return fmt.Errorf("min-max scaler names %d features, expected %d", len(s.FeatureNames), s.NFeatures)
	}
	return nil
}

func (s *MinMaxScaler) NumFeatures() int {
	return s.NFeatures
}

func (s *MinMaxScaler) Transform(vec FeatureVector) (ScaledFeatureVector, error) {
	if err := checkColumns("scale", s.NFeatures, s.FeatureNames, vec.Columns, len(vec.Values)); err != nil {
		return ScaledFeatureVector{}, err
	}

	out := make([]float64, len(vec.Values))
	for j, x := range vec.Values {
		out[j] = x*s.Scale[j] + s.Min[j]
	}

	return ScaledFeatureVector{Columns: slices.Clone(vec.Columns), Values: out}, nil
}

// checkColumns verifies a vector against a fitted width and, when the
// artifact recorded them, the fitted column names and their order.
func checkColumns(stage string, width int, fitted []string, columns []string, actual int) error {
	if actual != width {
		err := &SchemaMismatchError{Stage: stage, Expected: width, Actual: actual}
		if len(fitted) > 0 {
			err.Missing, err.Extra = diffColumns(fitted, columns)
		}
		return err
	}
	if len(fitted) > 0 && !slices.Equal(fitted, columns) {
		err := &SchemaMismatchError{Stage: stage, Expected: width, Actual: actual}
		err.Missing, err.Extra = diffColumns(fitted, columns)
		err.OutOfOrder = len(err.Missing) == 0 && len(err.Extra) == 0
		return err
	}
	return nil
}
