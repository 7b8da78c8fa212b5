package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/clinassist/internal/application/analysis"
	"github.com/bryanwahyu/clinassist/internal/application/records"
	domai "github.com/bryanwahyu/clinassist/internal/domain/analysis"
	dompatients "github.com/bryanwahyu/clinassist/internal/domain/patients"
	"github.com/bryanwahyu/clinassist/internal/middleware"
)

type Router struct {
	recordsSvc *records.Service
	aiSvc      *appanalysis.Service
	log        *zap.SugaredLogger
}

// NewRouter wires all routes. healthChecks and staticDir are optional.
func NewRouter(recordsSvc *records.Service, aiSvc *appanalysis.Service, staticDir string, healthChecks map[string]middleware.HealthChecker, log *zap.SugaredLogger) http.Handler {
	r := &Router{recordsSvc: recordsSvc, aiSvc: aiSvc, log: log}
	mux := chi.NewRouter()

	if len(healthChecks) > 0 {
		mux.Get("/health", middleware.HealthHandler(healthChecks))
	} else {
		mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	}
	mux.Get("/metrics", middleware.MetricsHandler)

	if staticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
		mux.Handle("/static/*", fs)
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/patients", r.wrap(r.handleCreatePatient))
		rt.Get("/patients", r.wrap(r.handleListPatients))
		rt.Get("/patients/{id}", r.wrap(r.handleGetPatient))
		rt.Put("/patients/{id}", r.wrap(r.handleUpdatePatient))
		rt.Delete("/patients/{id}", r.wrap(r.handleDeletePatient))

		rt.Post("/reports", r.wrap(r.handleCreateReport))
		rt.Get("/reports/by-patient/{patientID}", r.wrap(r.handleListReports))

		rt.Get("/ai/segregated-reports/{patientID}", r.wrap(r.handleGroupedAnalysis))
		rt.Get("/ai/risk-heatmap/{patientID}", r.wrap(r.handleRiskHeatmap))
		rt.Post("/ai/analyze-symptom/{patientID}", r.wrap(r.handleAnalyzeSymptom))
		rt.Post("/ai/chat/{patientID}", r.wrap(r.handleChat))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks client-side input problems.
type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequestError
			switch {
			case errors.Is(err, sql.ErrNoRows):
				writeError(w, http.StatusNotFound, "not found")
			case errors.As(err, &br):
				writeError(w, http.StatusBadRequest, br.msg)
			case errors.Is(err, domai.ErrReportData):
				// stored data problem; don't leak internals to the client
				r.log.Errorw("report processing failed", "error", err)
				writeError(w, http.StatusServiceUnavailable, "analysis temporarily unavailable")
			default:
				r.log.Errorw("request failed", "path", req.URL.Path, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}
	}
}

// Envelope {success, data, error} seperti API lama
func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
		"error":   nil,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"data":    nil,
		"error":   msg,
	})
}

// POST /v1/patients
func (r *Router) handleCreatePatient(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name           string   `json:"name"`
		Age            int      `json:"age"`
		Gender         string   `json:"gender"`
		MedicalHistory string   `json:"medical_history"`
		Lifestyle      string   `json:"lifestyle"`
		RiskFactors    []string `json:"risk_factors"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.Name == "" {
		return badRequest("name is required")
	}
	if body.Age < 0 {
		return badRequest("age must be >= 0")
	}
	if err := middleware.ValidateGender(body.Gender); err != nil {
		return badRequest("%v", err)
	}

	id, err := r.recordsSvc.CreatePatient(req.Context(), records.CreatePatientCommand{
		Name:           middleware.SanitizeString(body.Name),
		Age:            body.Age,
		Gender:         body.Gender,
		MedicalHistory: body.MedicalHistory,
		Lifestyle:      body.Lifestyle,
		RiskFactors:    body.RiskFactors,
	})
	if err != nil {
		return err
	}
	writeEnvelope(w, http.StatusCreated, map[string]any{"patient_id": id})
	return nil
}

// GET /v1/patients?limit=&skip=
func (r *Router) handleListPatients(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	skip, _ := strconv.Atoi(req.URL.Query().Get("skip"))

	list, err := r.recordsSvc.ListPatients(req.Context(), middleware.ValidateLimit(limit), skip)
	if err != nil {
		return err
	}
	writeEnvelope(w, http.StatusOK, list)
	return nil
}

// GET /v1/patients/{id}
func (r *Router) handleGetPatient(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	p, err := r.recordsSvc.GetPatient(req.Context(), dompatients.PatientID(id))
	if err != nil {
		return err
	}
	writeEnvelope(w, http.StatusOK, p)
	return nil
}

// PUT /v1/patients/{id}
func (r *Router) handleUpdatePatient(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	var body struct {
		Name           *string  `json:"name"`
		Age            *int     `json:"age"`
		Gender         *string  `json:"gender"`
		MedicalHistory *string  `json:"medical_history"`
		Lifestyle      *string  `json:"lifestyle"`
		RiskFactors    []string `json:"risk_factors"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.Gender != nil {
		if err := middleware.ValidateGender(*body.Gender); err != nil {
			return badRequest("%v", err)
		}
	}

	err := r.recordsSvc.UpdatePatient(req.Context(), dompatients.PatientID(id), records.UpdatePatientCommand{
		Name:           body.Name,
		Age:            body.Age,
		Gender:         body.Gender,
		MedicalHistory: body.MedicalHistory,
		Lifestyle:      body.Lifestyle,
		RiskFactors:    body.RiskFactors,
	})
	if err != nil {
		return err
	}
	writeEnvelope(w, http.StatusOK, map[string]any{"updated": true})
	return nil
}

// DELETE /v1/patients/{id}
func (r *Router) handleDeletePatient(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := r.recordsSvc.DeletePatient(req.Context(), dompatients.PatientID(id)); err != nil {
		return err
	}
	writeEnvelope(w, http.StatusOK, map[string]any{"deleted": true})
	return nil
}

// POST /v1/reports
// Text extraction (OCR/PDF) happens upstream; this receives the
// extracted text plus the clinical report date.
func (r *Router) handleCreateReport(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		PatientID  string `json:"patient_id"`
		ReportText string `json:"report_text"`
		ReportDate string `json:"report_date"`
		Type       string `json:"type"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.PatientID == "" {
		return badRequest("patient_id is required")
	}
	if err := middleware.ValidateReportType(body.Type); err != nil {
		return badRequest("%v", err)
	}

	id, err := r.recordsSvc.CreateReport(req.Context(), records.CreateReportCommand{
		PatientID:  body.PatientID,
		Text:       body.ReportText,
		ReportDate: body.ReportDate,
		Type:       body.Type,
	})
	if err != nil {
		return err
	}
	writeEnvelope(w, http.StatusCreated, map[string]any{"report_id": id})
	return nil
}

// GET /v1/reports/by-patient/{patientID}
func (r *Router) handleListReports(w http.ResponseWriter, req *http.Request) error {
	patientID := chi.URLParam(req, "patientID")
	list, err := r.recordsSvc.ListReports(req.Context(), patientID)
	if err != nil {
		return err
	}
	writeEnvelope(w, http.StatusOK, list)
	return nil
}

// GET /v1/ai/segregated-reports/{patientID}
func (r *Router) handleGroupedAnalysis(w http.ResponseWriter, req *http.Request) error {
	patientID := chi.URLParam(req, "patientID")

	middleware.IncrementAnalyses()
	res, err := r.aiSvc.GroupedAnalysis(req.Context(), patientID)
	if err != nil {
		return err
	}
	if res.Degraded {
		middleware.IncrementDegraded()
	}
	writeEnvelope(w, http.StatusOK, res)
	return nil
}

// GET /v1/ai/risk-heatmap/{patientID}
func (r *Router) handleRiskHeatmap(w http.ResponseWriter, req *http.Request) error {
	patientID := chi.URLParam(req, "patientID")

	middleware.IncrementAnalyses()
	res, err := r.aiSvc.RiskHeatmap(req.Context(), patientID)
	if err != nil {
		return err
	}
	if res.Degraded {
		middleware.IncrementDegraded()
	}
	middleware.IncrementHeatmaps()
	writeEnvelope(w, http.StatusOK, res)
	return nil
}

// POST /v1/ai/analyze-symptom/{patientID}
func (r *Router) handleAnalyzeSymptom(w http.ResponseWriter, req *http.Request) error {
	patientID := chi.URLParam(req, "patientID")
	var body struct {
		Symptom string `json:"symptom"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := middleware.ValidateFreeText("symptom", body.Symptom); err != nil {
		return badRequest("%v", err)
	}

	middleware.IncrementAnalyses()
	res, err := r.aiSvc.AnalyzeSymptom(req.Context(), patientID, middleware.SanitizeString(body.Symptom))
	if err != nil {
		return err
	}
	if res.Degraded {
		middleware.IncrementDegraded()
	}
	writeEnvelope(w, http.StatusOK, res)
	return nil
}

// POST /v1/ai/chat/{patientID}
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	patientID := chi.URLParam(req, "patientID")
	var body struct {
		Message string `json:"message"`
		History []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"history"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := middleware.ValidateFreeText("message", body.Message); err != nil {
		return badRequest("%v", err)
	}

	history := make([]domai.ConversationTurn, 0, len(body.History))
	for _, t := range body.History {
		history = append(history, domai.ConversationTurn{Role: t.Role, Text: t.Text})
	}

	middleware.IncrementAnalyses()
	res, err := r.aiSvc.Chat(req.Context(), patientID, middleware.SanitizeString(body.Message), history)
	if err != nil {
		return err
	}
	if res.Degraded {
		middleware.IncrementDegraded()
	}
	writeEnvelope(w, http.StatusOK, res)
	return nil
}
