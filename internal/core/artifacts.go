package core

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"churn-backend/internal/storage"
)

// ArtifactLocation names the three artifacts inside a bucket.
type ArtifactLocation struct {
	Bucket     string
	Prefix     string
	ScalerKey  string
	ModelKey   string
	ColumnsKey string
}

// Key joins the location prefix onto an artifact name.
func (l ArtifactLocation) Key(name string) string {
	if l.Prefix == "" {
		return name
	}
	return path.Join(l.Prefix, name)
}

// LoadPredictor reads the scaler, classifier and schema columns from the
// provider and assembles a Predictor.
func LoadPredictor(ctx context.Context, provider storage.Provider, loc ArtifactLocation, catalog *Catalog) (*Predictor, error) {
	columnsData, err := provider.GetObject(ctx, loc.Bucket, loc.Key(loc.ColumnsKey))
	if err != nil {
		return nil, fmt.Errorf("error reading schema columns %s/%s: %w", loc.Bucket, loc.Key(loc.ColumnsKey), err)
	}
	columns, err := LoadColumns(columnsData)
	if err != nil {
		return nil, err
	}
	schema, err := NewSchema(columns, catalog)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	scalerData, err := provider.GetObject(ctx, loc.Bucket, loc.Key(loc.ScalerKey))
	if err != nil {
		return nil, fmt.Errorf("error reading scaler %s/%s: %w", loc.Bucket, loc.Key(loc.ScalerKey), err)
	}
	scaler, err := LoadScaler(scalerData)
	if err != nil {
		return nil, fmt.Errorf("invalid scaler artifact: %w", err)
	}

	modelData, err := provider.GetObject(ctx, loc.Bucket, loc.Key(loc.ModelKey))
	if err != nil {
		return nil, fmt.Errorf("error reading classifier %s/%s: %w", loc.Bucket, loc.Key(loc.ModelKey), err)
	}
	classifier, err := LoadClassifier(modelData)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier artifact: %w", err)
	}

	// A width disagreement is not fatal here: it surfaces per request as a
	// SchemaMismatchError with the column detail.
	if scaler.NumFeatures() != schema.Len() || classifier.NumFeatures() != schema.Len() {
		slog.Warn("artifact widths disagree",
			"schema_columns", schema.Len(),
			"scaler_features", scaler.NumFeatures(),
			"classifier_features", classifier.NumFeatures(),
		)
	}

	slog.Info("loaded churn model artifacts",
		"bucket", loc.Bucket,
		"prefix", loc.Prefix,
		"columns", schema.Len(),
		"trees", treeCount(classifier),
	)

	return NewPredictor(catalog, schema, scaler, classifier), nil
}

func treeCount(c Classifier) int {
	if rf, ok := c.(*RandomForest); ok {
		return len(rf.Estimators)
	}
	return 0
}
