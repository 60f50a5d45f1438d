package core

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"testing"

	"churn-backend/internal/storage"

	"github.com/stretchr/testify/require"
)

func testLocation() ArtifactLocation {
	return ArtifactLocation{
		Bucket:     "models",
		ScalerKey:  "scaler.json",
		ModelKey:   "model.json",
		ColumnsKey: "model_columns.json",
	}
}

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	return catalog
}

func loadTestPredictor(t *testing.T) *Predictor {
	t.Helper()
	provider, err := storage.NewLocalProvider("testdata")
	require.NoError(t, err)

	predictor, err := LoadPredictor(context.Background(), provider, testLocation(), loadTestCatalog(t))
	require.NoError(t, err)
	return predictor
}

// scenarioA is a new month-to-month fiber customer paying by electronic check.
func scenarioA() map[string]string {
	return map[string]string{
		"gender":           "Female",
		"SeniorCitizen":    "No",
		"Partner":          "No",
		"Dependents":       "No",
		"tenure":           "1",
		"PhoneService":     "Yes",
		"MultipleLines":    "No",
		"InternetService":  "Fiber optic",
		"OnlineSecurity":   "No",
		"OnlineBackup":     "No",
		"DeviceProtection": "No",
		"TechSupport":      "No",
		"StreamingTV":      "No",
		"StreamingMovies":  "No",
		"Contract":         "Month-to-month",
		"PaperlessBilling": "Yes",
		"PaymentMethod":    "Electronic check",
		"MonthlyCharges":   "70.35",
		"TotalCharges":     "70.35",
	}
}

// loyalCustomer is a long-tenure DSL customer on a two year contract.
func loyalCustomer() map[string]string {
	values := scenarioA()
	maps.Copy(values, map[string]string{
		"gender":          "Male",
		"Partner":         "Yes",
		"tenure":          "60",
		"InternetService": "DSL",
		"Contract":        "Two year",
		"PaymentMethod":   "Bank transfer (automatic)",
		"MonthlyCharges":  "55.2",
		"TotalCharges":    "3312",
	})
	return values
}

func with(values map[string]string, field, value string) map[string]string {
	out := maps.Clone(values)
	out[field] = value
	return out
}

func collectReady(t *testing.T, catalog *Catalog, values map[string]string) *Record {
	t.Helper()
	record, errs := Collect(catalog, values)
	require.Empty(t, errs)
	require.True(t, record.Ready())
	return record
}

func readTestdata(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join("testdata", "models", name))
}
