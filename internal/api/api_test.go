package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	backend "churn-backend/internal/api"
	"churn-backend/internal/core"
	"churn-backend/internal/storage"
	"churn-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadPredictor(t *testing.T) *core.Predictor {
	t.Helper()
	provider, err := storage.NewLocalProvider("../core/testdata")
	require.NoError(t, err)

	catalog, err := core.LoadCatalog()
	require.NoError(t, err)

	predictor, err := core.LoadPredictor(context.Background(), provider, core.ArtifactLocation{
		Bucket:     "models",
		ScalerKey:  "scaler.json",
		ModelKey:   "model.json",
		ColumnsKey: "model_columns.json",
	}, catalog)
	require.NoError(t, err)
	return predictor
}

func newRouter(t *testing.T, predictor *core.Predictor, allowDiagnostics bool) chi.Router {
	t.Helper()
	service, err := backend.NewChurnService(predictor, backend.NewMetrics(), allowDiagnostics)
	require.NoError(t, err)

	router := chi.NewRouter()
	service.AddRoutes(router)
	return router
}

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

func predictRequest(values map[string]string, diagnostics bool) api.PredictRequest {
	req := api.PredictRequest{Fields: make(map[string]api.FieldValue), Diagnostics: diagnostics}
	for k, v := range values {
		req.Fields[k] = api.FieldValue(v)
	}
	return req
}

func postJson(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, router http.Handler, values map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPredict(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	rec := postJson(t, router, "/api/v1/predict", predictRequest(scenarioA(), false))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEqual(t, uuid.Nil, res.Id)
	assert.Equal(t, 1, res.Label)
	assert.Equal(t, "likely to churn", res.Outcome)
	assert.Equal(t, "Consider offering retention incentives or better support.", res.Advice)
	assert.InDelta(t, 0.725, res.ChurnProbability, 1e-9)
	assert.Nil(t, res.Diagnostics)
}

func TestPredictAcceptsJsonNumbers(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	body := `{"Fields": {
		"gender": "Female", "SeniorCitizen": "No", "Partner": "No", "Dependents": "No",
		"tenure": 1, "PhoneService": "Yes", "MultipleLines": "No", "InternetService": "Fiber optic",
		"OnlineSecurity": "No", "OnlineBackup": "No", "DeviceProtection": "No", "TechSupport": "No",
		"StreamingTV": "No", "StreamingMovies": "No", "Contract": "Month-to-month",
		"PaperlessBilling": "Yes", "PaymentMethod": "Electronic check",
		"MonthlyCharges": 70.35, "TotalCharges": 70.35
	}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Label)
}

func TestPredictDiagnostics(t *testing.T) {
	t.Run("Allowed", func(t *testing.T) {
		router := newRouter(t, loadPredictor(t), true)

		rec := postJson(t, router, "/api/v1/predict", predictRequest(scenarioA(), true))
		require.Equal(t, http.StatusOK, rec.Code)

		var res api.PredictResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.NotNil(t, res.Diagnostics)
		assert.Equal(t, 40, res.Diagnostics.SchemaColumns)
		assert.Equal(t, 40, res.Diagnostics.InputColumns)
		assert.Empty(t, res.Diagnostics.MissingColumns)
		assert.Len(t, res.Diagnostics.Scaled, 40)
		assert.Equal(t, 1, res.Diagnostics.RawLabel)
	})

	t.Run("Disabled", func(t *testing.T) {
		router := newRouter(t, loadPredictor(t), false)

		rec := postJson(t, router, "/api/v1/predict", predictRequest(scenarioA(), true))
		require.Equal(t, http.StatusOK, rec.Code)

		var res api.PredictResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Nil(t, res.Diagnostics)
	})
}

func TestPredictNotReady(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	values := scenarioA()
	values["MonthlyCharges"] = ""
	values["TotalCharges"] = "abc"
	delete(values, "Contract")

	rec := postJson(t, router, "/api/v1/predict", predictRequest(values, false))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var res api.ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Ready)

	reasons := map[string]string{}
	for _, fe := range res.Errors {
		reasons[fe.Field] = fe.Reason
	}
	assert.Equal(t, map[string]string{
		"MonthlyCharges": "missing",
		"TotalCharges":   "invalid_number",
		"Contract":       "missing",
	}, reasons)
}

func TestPredictMalformedBody(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{"Fields": [`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictSchemaMismatch(t *testing.T) {
	predictor := loadPredictor(t)

	// A schema that lost its last column no longer fits the fitted scaler.
	schema, err := core.NewSchema(predictor.Schema().Names()[:39], predictor.Catalog())
	require.NoError(t, err)
	broken := core.NewPredictor(predictor.Catalog(), schema, predictor.Scaler(), predictor.Classifier())

	router := newRouter(t, broken, false)
	rec := postJson(t, router, "/api/v1/predict", predictRequest(scenarioA(), false))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "expected 40 columns, got 39")
	assert.Contains(t, rec.Body.String(), "PaymentMethod_Mailed check")
}

func TestValidate(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	rec := postJson(t, router, "/api/v1/validate", predictRequest(scenarioA(), false))
	require.Equal(t, http.StatusOK, rec.Code)

	var res api.ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Ready)
	assert.Empty(t, res.Errors)

	values := scenarioA()
	values["tenure"] = "twelve"
	rec = postJson(t, router, "/api/v1/validate", predictRequest(values, false))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Ready)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Invalid input for Tenure (months). Please enter a valid number.", res.Errors[0].Message)
}

func TestListFields(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var fields []api.FieldInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	require.Len(t, fields, 19)
	assert.Equal(t, api.FieldInfo{Name: "gender", Label: "Gender", Encoding: "binary", Column: 1, Options: []string{"Female", "Male"}}, fields[0])
	assert.Equal(t, api.FieldInfo{Name: "TotalCharges", Label: "Total Charges", Encoding: "numeric", Column: 2}, fields[18])
}

func TestHealth(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, api.HealthResponse{Status: "ok", SchemaColumns: 40, ClassifierKind: "random_forest", Trees: 2}, res)
}

func TestShowForm(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, "TELCO CUSTOMER CHURN PREDICTOR")
	assert.Contains(t, page, "About this App")
	assert.Contains(t, page, `<button type="submit" id="predict" disabled>`)
	assert.Contains(t, page, `<option value="Fiber optic">Fiber optic</option>`)
	assert.Contains(t, page, `<option value="DSL" selected>DSL</option>`)
	assert.NotContains(t, page, "Show diagnostics")
	assert.NotContains(t, page, "result-box\"")
}

func TestSubmitForm(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	rec := postForm(t, router, scenarioA())
	require.Equal(t, http.StatusOK, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, "Customer is likely to churn.")
	assert.Contains(t, page, "Consider offering retention incentives or better support.")
	assert.Contains(t, page, "Churn probability: 72.5%")
	assert.Contains(t, page, `<button type="submit" id="predict">`)
	assert.Contains(t, page, `value="70.35"`)
}

func TestSubmitFormBlankNumericBlocksPrediction(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	values := scenarioA()
	values["MonthlyCharges"] = ""

	rec := postForm(t, router, values)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, `<button type="submit" id="predict" disabled>`)
	assert.Contains(t, page, "Please fill in all fields with valid inputs before predicting.")
	assert.NotContains(t, page, "Please enter a valid number.")
	assert.NotContains(t, page, "Customer is likely")
}

func TestSubmitFormInvalidNumber(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	values := scenarioA()
	values["TotalCharges"] = "lots"

	rec := postForm(t, router, values)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, "Invalid input for Total Charges. Please enter a valid number.")
	assert.NotContains(t, page, "Customer is likely")
}

func TestSubmitFormDiagnostics(t *testing.T) {
	router := newRouter(t, loadPredictor(t), true)

	values := scenarioA()
	values["diagnostics"] = "true"

	rec := postForm(t, router, values)
	require.Equal(t, http.StatusOK, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, "Model columns count: 40")
	assert.Contains(t, page, "Input columns count: 40")
	assert.Contains(t, page, "Missing columns (should be empty): []")
	assert.Contains(t, page, "<th>InternetService_Fiber optic</th>")
}

func TestMetrics(t *testing.T) {
	router := newRouter(t, loadPredictor(t), false)

	rec := postJson(t, router, "/api/v1/predict", predictRequest(scenarioA(), false))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `churn_predictions_total{outcome="likely to churn"} 1`)
	assert.Contains(t, string(body), "churn_prediction_duration_seconds_count 1")
}
