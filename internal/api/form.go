package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"churn-backend/internal/core"
	"churn-backend/pkg/api"
)

//go:embed templates/form.html
var templateFS embed.FS

const notReadyMessage = "Please fill in all fields with valid inputs before predicting."

type fieldView struct {
	Name    string
	Label   string
	Numeric bool
	Options []string
	Value   string
	Error   string
}

type resultView struct {
	Id               string
	Churn            bool
	Summary          string
	Advice           string
	ChurnProbability float64
}

type formView struct {
	Columns          [2][]fieldView
	Ready            bool
	Error            string
	Result           *resultView
	AllowDiagnostics bool
	ShowDiagnostics  bool
	Diagnostics      *api.Diagnostics
}

type formPage struct {
	catalog *core.Catalog
	tmpl    *template.Template
}

func newFormPage(catalog *core.Catalog) (*formPage, error) {
	tmpl, err := template.New("form.html").Funcs(template.FuncMap{
		"percent": func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) },
	}).ParseFS(templateFS, "templates/form.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing form template: %w", err)
	}
	return &formPage{catalog: catalog, tmpl: tmpl}, nil
}

// view builds the form state for the given raw values. Selects without a
// value start on their first option.
func (p *formPage) view(values map[string]string, errs core.FieldErrors) formView {
	visible := errs.Visible().ByField()

	var v formView
	for i := range v.Columns {
		for _, f := range p.catalog.Column(i + 1) {
			fv := fieldView{
				Name:    f.Name,
				Label:   f.Label,
				Numeric: f.IsNumeric(),
				Options: f.Options,
				Value:   values[f.Name],
			}
			if !fv.Numeric && fv.Value == "" && len(f.Options) > 0 {
				fv.Value = f.Options[0]
			}
			if fe, ok := visible[f.Name]; ok {
				fv.Error = fe.Message
			}
			v.Columns[i] = append(v.Columns[i], fv)
		}
	}
	v.Ready = len(errs) == 0
	return v
}

func (p *formPage) render(w http.ResponseWriter, code int, v formView) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, v); err != nil {
		slog.Error("error rendering form", "error", err)
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("error writing page", "error", err)
	}
}

// ready reports whether the values currently shown in the form make a
// complete record.
func (p *formPage) ready(v formView) bool {
	values := make(map[string]string)
	for _, column := range v.Columns {
		for _, f := range column {
			values[f.Name] = f.Value
		}
	}
	_, errs := core.Collect(p.catalog, values)
	return len(errs) == 0
}

func (s *ChurnService) ShowForm(w http.ResponseWriter, r *http.Request) {
	v := s.page.view(nil, nil)
	v.Ready = s.page.ready(v)
	v.AllowDiagnostics = s.allowDiagnostics
	s.page.render(w, http.StatusOK, v)
}

func (s *ChurnService) SubmitForm(w http.ResponseWriter, r *http.Request) {
	form, err := ParseRequestForm[api.CustomerForm](r)
	if err != nil {
		writeError(w, err)
		return
	}

	values := form.Values()
	record, errs := s.predictor.Collect(values)

	v := s.page.view(values, errs)
	v.AllowDiagnostics = s.allowDiagnostics
	v.ShowDiagnostics = form.ShowDiagnostics && s.allowDiagnostics

	if len(errs) > 0 {
		s.metrics.observeRejection("not_ready")
		v.Error = notReadyMessage
		s.page.render(w, http.StatusUnprocessableEntity, v)
		return
	}

	id, prediction, err := s.runPrediction(record, v.ShowDiagnostics)
	if err != nil {
		code := http.StatusInternalServerError
		var cerr *codedError
		if errors.As(pipelineError(err), &cerr) {
			code = cerr.code
		}
		v.Error = fmt.Sprintf("Prediction error: %v", err)
		s.page.render(w, code, v)
		return
	}

	res := convertPrediction(id, prediction)
	v.Result = &resultView{
		Id:               res.Id.String(),
		Churn:            prediction.Label == core.LabelChurn,
		Summary:          res.Headline,
		Advice:           res.Advice,
		ChurnProbability: res.ChurnProbability,
	}
	v.Diagnostics = res.Diagnostics
	s.page.render(w, http.StatusOK, v)
}
