package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"churn-backend/internal/core"
	"churn-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ChurnService struct {
	predictor *core.Predictor
	metrics   *Metrics
	page      *formPage

	// allowDiagnostics lets callers ask for the intermediate vectors.
	allowDiagnostics bool
}

func NewChurnService(predictor *core.Predictor, metrics *Metrics, allowDiagnostics bool) (*ChurnService, error) {
	page, err := newFormPage(predictor.Catalog())
	if err != nil {
		return nil, err
	}
	return &ChurnService{
		predictor:        predictor,
		metrics:          metrics,
		page:             page,
		allowDiagnostics: allowDiagnostics,
	}, nil
}

func (s *ChurnService) AddRoutes(r chi.Router) {
	r.Get("/", s.ShowForm)
	r.Post("/", s.SubmitForm)
	r.Get("/health", RestHandler(s.Health))
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/fields", RestHandler(s.ListFields))
		r.Post("/predict", RestHandler(s.Predict))
		r.Post("/validate", RestHandler(s.Validate))
	})
}

func (s *ChurnService) Health(r *http.Request) (any, error) {
	kind := "unknown"
	trees := 0
	if rf, ok := s.predictor.Classifier().(*core.RandomForest); ok {
		kind = string(core.RandomForestType)
		trees = len(rf.Estimators)
	}
	return api.HealthResponse{
		Status:         "ok",
		SchemaColumns:  s.predictor.Schema().Len(),
		ClassifierKind: kind,
		Trees:          trees,
	}, nil
}

func (s *ChurnService) ListFields(r *http.Request) (any, error) {
	fields := s.predictor.Catalog().Fields()
	out := make([]api.FieldInfo, 0, len(fields))
	for _, f := range fields {
		out = append(out, api.FieldInfo{
			Name:     f.Name,
			Label:    f.Label,
			Encoding: string(f.Encoding),
			Column:   f.Column,
			Options:  f.Options,
		})
	}
	return out, nil
}

func (s *ChurnService) Validate(r *http.Request) (any, error) {
	req, err := ParseRequest[api.PredictRequest](r)
	if err != nil {
		return nil, err
	}

	_, errs := s.predictor.Collect(req.Values())
	return validateResponse(errs), nil
}

func (s *ChurnService) Predict(r *http.Request) (any, error) {
	req, err := ParseRequest[api.PredictRequest](r)
	if err != nil {
		return nil, err
	}

	record, errs := s.predictor.Collect(req.Values())
	if len(errs) > 0 {
		s.metrics.observeRejection("not_ready")
		return nil, pipelineError(errs)
	}

	id, prediction, err := s.runPrediction(record, req.Diagnostics && s.allowDiagnostics)
	if err != nil {
		return nil, pipelineError(err)
	}

	return convertPrediction(id, prediction), nil
}

// runPrediction runs the pipeline on a ready record and records metrics for
// the attempt.
func (s *ChurnService) runPrediction(record *core.Record, withDiagnostics bool) (uuid.UUID, *core.Prediction, error) {
	id := uuid.New()
	start := time.Now()

	prediction, err := s.predictor.Predict(record, withDiagnostics)
	if err != nil {
		s.metrics.observeRejection(rejectionReason(err))
		slog.Error("prediction failed", "prediction_id", id, "error", err)
		return id, nil, err
	}

	elapsed := time.Since(start)
	s.metrics.observePrediction(prediction.Outcome.Summary, elapsed)
	slog.Info("prediction complete",
		"prediction_id", id,
		"label", prediction.Label,
		"outcome", prediction.Outcome.Summary,
		"churn_probability", prediction.ChurnProbability,
		"duration", elapsed,
	)

	return id, prediction, nil
}

func rejectionReason(err error) string {
	var fieldErrs core.FieldErrors
	var encErr *core.EncodingError
	var mismatch *core.SchemaMismatchError
	switch {
	case errors.As(err, &fieldErrs):
		return "not_ready"
	case errors.As(err, &encErr):
		return "encoding"
	case errors.As(err, &mismatch):
		return "schema_mismatch"
	default:
		return "internal"
	}
}

// pipelineError maps the core error taxonomy onto http status codes.
func pipelineError(err error) error {
	var fieldErrs core.FieldErrors
	var encErr *core.EncodingError
	var mismatch *core.SchemaMismatchError
	switch {
	case errors.As(err, &fieldErrs):
		return CodedErrorBody(http.StatusUnprocessableEntity, err, validateResponse(fieldErrs))
	case errors.As(err, &encErr):
		return CodedError(http.StatusBadRequest, err)
	case errors.As(err, &mismatch):
		return CodedError(http.StatusInternalServerError, err)
	default:
		return CodedErrorf(http.StatusInternalServerError, "prediction error: %v", err)
	}
}

func validateResponse(errs core.FieldErrors) api.ValidateResponse {
	res := api.ValidateResponse{Ready: len(errs) == 0}
	for _, fe := range errs {
		res.Errors = append(res.Errors, api.FieldError{
			Field:   fe.Field,
			Label:   fe.Label,
			Reason:  string(fe.Reason),
			Message: fe.Message,
		})
	}
	return res
}

func convertPrediction(id uuid.UUID, p *core.Prediction) api.PredictResponse {
	res := api.PredictResponse{
		Id:               id,
		Label:            int(p.Label),
		Outcome:          p.Outcome.Summary,
		Headline:         p.Outcome.Headline,
		Advice:           p.Outcome.Advice,
		ChurnProbability: p.ChurnProbability,
	}
	if d := p.Diagnostics; d != nil {
		res.Diagnostics = &api.Diagnostics{
			SchemaColumns:  d.SchemaColumns,
			InputColumns:   d.InputColumns,
			MissingColumns: d.MissingColumns,
			Columns:        d.Encoded.Columns,
			Encoded:        d.Encoded.Values,
			Scaled:         d.Scaled.Values,
			RawLabel:       int(d.RawLabel),
		}
	}
	return res
}
