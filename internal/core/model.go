package core

import (
	"encoding/json"
	"fmt"
)

// ScalerType is the "type" tag of a serialized scaler artifact.
type ScalerType string

const (
	StandardScalerType ScalerType = "standard_scaler"
	MinMaxScalerType   ScalerType = "min_max_scaler"
)

// ClassifierType is the "type" tag of a serialized classifier artifact.
type ClassifierType string

const (
	RandomForestType ClassifierType = "random_forest"
	DecisionTreeType ClassifierType = "decision_tree"
)

type ScalerLoader func(data []byte) (Scaler, error)

type ClassifierLoader func(data []byte) (Classifier, error)

func NewScalerLoaders() map[ScalerType]ScalerLoader {
	return map[ScalerType]ScalerLoader{
		StandardScalerType: func(data []byte) (Scaler, error) {
			var s StandardScaler
			if err := json.Unmarshal(data, &s); err != nil {
				return nil, fmt.Errorf("error decoding standard scaler: %w", err)
			}
			if err := s.validate(); err != nil {
				return nil, err
			}
			return &s, nil
		},
		MinMaxScalerType: func(data []byte) (Scaler, error) {
			var s MinMaxScaler
			if err := json.Unmarshal(data, &s); err != nil {
				return nil, fmt.Errorf("error decoding min-max scaler: %w", err)
			}
			if err := s.validate(); err != nil {
				return nil, err
			}
			return &s, nil
		},
	}
}

func NewClassifierLoaders() map[ClassifierType]ClassifierLoader {
	return map[ClassifierType]ClassifierLoader{
		RandomForestType: func(data []byte) (Classifier, error) {
			var rf RandomForest
			if err := json.Unmarshal(data, &rf); err != nil {
				return nil, fmt.Errorf("error decoding random forest: %w", err)
			}
			if err := rf.validate(); err != nil {
				return nil, err
			}
			return &rf, nil
		},
		DecisionTreeType: func(data []byte) (Classifier, error) {
			raw := struct {
				Classes   []Label       `json:"classes"`
				NFeatures int           `json:"n_features_in"`
				Tree      *DecisionTree `json:"tree"`
			}{}
			if err := json.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("error decoding decision tree: %w", err)
			}
			rf := &RandomForest{
				ClassLabels: raw.Classes,
				NFeatures:   raw.NFeatures,
				Estimators:  []*DecisionTree{raw.Tree},
			}
			if err := rf.validate(); err != nil {
				return nil, err
			}
			return rf, nil
		},
	}
}

func artifactType(data []byte) (string, error) {
	header := struct {
		Type string `json:"type"`
	}{}
	if err := json.Unmarshal(data, &header); err != nil {
		return "", fmt.Errorf("artifact is not valid json: %w", err)
	}
	if header.Type == "" {
		return "", fmt.Errorf("artifact has no type field")
	}
	return header.Type, nil
}

func LoadScaler(data []byte) (Scaler, error) {
	t, err := artifactType(data)
	if err != nil {
		return nil, err
	}
	loader, ok := NewScalerLoaders()[ScalerType(t)]
	if !ok {
		return nil, fmt.Errorf("unsupported scaler type '%s'", t)
	}
	return loader(data)
}

func LoadClassifier(data []byte) (Classifier, error) {
	t, err := artifactType(data)
	if err != nil {
		return nil, err
	}
	loader, ok := NewClassifierLoaders()[ClassifierType(t)]
	if !ok {
		return nil, fmt.Errorf("unsupported classifier type '%s'", t)
	}
	return loader(data)
}

// LoadColumns decodes the ordered schema column list.
func LoadColumns(data []byte) ([]string, error) {
	var columns []string
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, fmt.Errorf("error decoding schema columns: %w", err)
	}
	return columns, nil
}
