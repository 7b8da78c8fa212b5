package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/clinassist/internal/application/analysis"
	"github.com/bryanwahyu/clinassist/internal/application/records"
	domai "github.com/bryanwahyu/clinassist/internal/domain/analysis"
	"github.com/bryanwahyu/clinassist/internal/domain/patients"
	"github.com/bryanwahyu/clinassist/internal/domain/reports"
)

// --- fakes shared by handler tests ---

type memPatients struct {
	byID map[patients.PatientID]*patients.Patient
}

func (m *memPatients) Save(ctx context.Context, p *patients.Patient) error {
	m.byID[p.ID] = p
	return nil
}
func (m *memPatients) Get(ctx context.Context, id patients.PatientID) (*patients.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}
func (m *memPatients) List(ctx context.Context, limit, offset int) ([]*patients.Summary, error) {
	var out []*patients.Summary
	for _, p := range m.byID {
		out = append(out, &patients.Summary{ID: p.ID, Name: p.Name})
	}
	return out, nil
}
func (m *memPatients) Update(ctx context.Context, p *patients.Patient) error {
	m.byID[p.ID] = p
	return nil
}
func (m *memPatients) Delete(ctx context.Context, id patients.PatientID) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

type memReports struct {
	byPatient map[string][]*reports.Report
}

func (m *memReports) Save(ctx context.Context, r *reports.Report) error {
	m.byPatient[r.PatientID] = append(m.byPatient[r.PatientID], r)
	return nil
}
func (m *memReports) Get(ctx context.Context, id reports.ReportID) (*reports.Report, error) {
	return nil, sql.ErrNoRows
}
func (m *memReports) ListByPatient(ctx context.Context, patientID string) ([]*reports.Report, error) {
	return m.byPatient[patientID], nil
}

type fakeOracle struct {
	response string
	err      error
}

func (f *fakeOracle) Complete(ctx context.Context, p string) (string, error) {
	return f.response, f.err
}

type fakeRenderer struct{}

func (fakeRenderer) Render(ctx context.Context, subjectID string, risks map[string]float64) (*domai.Artifact, error) {
	return &domai.Artifact{URL: "/static/heatmaps/heatmap_" + subjectID + ".png"}, nil
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

func newTestHandler(oracle *fakeOracle) (http.Handler, *memPatients, *memReports) {
	pr := &memPatients{byID: make(map[patients.PatientID]*patients.Patient)}
	rr := &memReports{byPatient: make(map[string][]*reports.Report)}

	recordsSvc := &records.Service{Patients: pr, Reports: rr, Clock: fixedClock{}}
	aiSvc := &appanalysis.Service{
		Reports:  rr,
		Oracle:   oracle,
		Renderer: fakeRenderer{},
		Clock:    fixedClock{},
		Log:      zap.NewNop().Sugar(),
	}
	return NewRouter(recordsSvc, aiSvc, "", nil, zap.NewNop().Sugar()), pr, rr
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

// --- patients / reports ---

func TestPatientLifecycleOverHTTP(t *testing.T) {
	h, _, _ := newTestHandler(&fakeOracle{})

	rec, env := doJSON(t, h, http.MethodPost, "/v1/patients", map[string]any{
		"name": "Jane Roe", "age": 44, "gender": "female",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)

	var created struct {
		PatientID string `json:"patient_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.PatientID)

	rec, env = doJSON(t, h, http.MethodGet, "/v1/patients/"+created.PatientID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = doJSON(t, h, http.MethodDelete, "/v1/patients/"+created.PatientID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, h, http.MethodGet, "/v1/patients/"+created.PatientID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not found", *env.Error)
}

func TestCreatePatientValidation(t *testing.T) {
	h, _, _ := newTestHandler(&fakeOracle{})

	cases := []map[string]any{
		{"age": 44, "gender": "female"},              // missing name
		{"name": "X", "age": -1, "gender": "female"}, // negative age
		{"name": "X", "age": 10, "gender": "robot"},  // bad gender
	}
	for _, body := range cases {
		rec, env := doJSON(t, h, http.MethodPost, "/v1/patients", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %v", body)
		assert.False(t, env.Success)
	}
}

func TestCreateReportRejectsUnknownType(t *testing.T) {
	h, _, _ := newTestHandler(&fakeOracle{})

	rec, _ := doJSON(t, h, http.MethodPost, "/v1/reports", map[string]any{
		"patient_id": "p1", "report_text": "x", "type": "spreadsheet",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReportForMissingPatientIs404(t *testing.T) {
	h, _, _ := newTestHandler(&fakeOracle{})

	rec, _ := doJSON(t, h, http.MethodPost, "/v1/reports", map[string]any{
		"patient_id": "ghost", "report_text": "x", "type": "pdf",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- AI endpoints ---

func seedPatientWithReports(t *testing.T, pr *memPatients, rr *memReports) string {
	t.Helper()
	pr.byID["p1"] = &patients.Patient{ID: "p1", Name: "Jane"}
	rr.byPatient["p1"] = []*reports.Report{
		{ID: "r1", PatientID: "p1", Text: "bp elevated", ReportDate: "2024-01-15", Type: reports.TypePDF},
		{ID: "r2", PatientID: "p1", Text: "cbc normal", ReportDate: "2024-01-15", Type: reports.TypeLab},
	}
	return "p1"
}

func TestGroupedAnalysisEndpoint(t *testing.T) {
	h, pr, rr := newTestHandler(&fakeOracle{response: `{"pros":["stable"],"cons":["monitor"]}`})
	pid := seedPatientWithReports(t, pr, rr)

	rec, env := doJSON(t, h, http.MethodGet, "/v1/ai/segregated-reports/"+pid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var res domai.GroupedAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Degraded)
	assert.Equal(t, []string{"stable"}, res.Pros)
	assert.Len(t, res.Groups["2024-01-15"], 2)
	assert.Len(t, res.LabRecords, 1)
}

func TestGroupedAnalysisEndpointDegraded(t *testing.T) {
	h, pr, rr := newTestHandler(&fakeOracle{err: domai.ErrUnavailable})
	pid := seedPatientWithReports(t, pr, rr)

	rec, env := doJSON(t, h, http.MethodGet, "/v1/ai/segregated-reports/"+pid, nil)
	require.Equal(t, http.StatusOK, rec.Code, "degraded mode is still a 200")
	require.True(t, env.Success)

	var res domai.GroupedAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Degraded)
	assert.Equal(t, []string{"Regular health monitoring noted"}, res.Pros)
}

func TestBrokenStoredReportIs503WithoutLeakingDetail(t *testing.T) {
	h, pr, rr := newTestHandler(&fakeOracle{response: `{"pros":["a"],"cons":["b"]}`})
	pr.byID["p1"] = &patients.Patient{ID: "p1"}
	rr.byPatient["p1"] = []*reports.Report{{ID: "", PatientID: "p1", Text: "x"}}

	rec, env := doJSON(t, h, http.MethodGet, "/v1/ai/segregated-reports/p1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "analysis temporarily unavailable", *env.Error)
	assert.NotContains(t, rec.Body.String(), "index", "internal detail must not leak")
}

func TestRiskHeatmapEndpoint(t *testing.T) {
	h, pr, rr := newTestHandler(&fakeOracle{err: domai.ErrUnavailable})
	pid := seedPatientWithReports(t, pr, rr)

	rec, env := doJSON(t, h, http.MethodGet, "/v1/ai/risk-heatmap/"+pid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res domai.RiskAssessment
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Degraded)
	require.NotNil(t, res.Heatmap)
	assert.True(t, strings.HasPrefix(res.Heatmap.URL, "/static/heatmaps/"))
	assert.Len(t, res.Risks, len(domai.RiskCategories))
}

func TestAnalyzeSymptomEndpointValidation(t *testing.T) {
	h, _, _ := newTestHandler(&fakeOracle{})

	rec, _ := doJSON(t, h, http.MethodPost, "/v1/ai/analyze-symptom/p1", map[string]any{"symptom": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointDegradedReply(t *testing.T) {
	h, pr, rr := newTestHandler(&fakeOracle{err: domai.ErrUnavailable})
	pid := seedPatientWithReports(t, pr, rr)

	rec, env := doJSON(t, h, http.MethodPost, "/v1/ai/chat/"+pid, map[string]any{
		"message": "any recommendations?",
		"history": []map[string]string{{"role": "user", "text": "hi"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res domai.ChatReply
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Degraded)
	assert.Contains(t, res.Reply, "Recommended Action Steps")
}

func TestHealthEndpointWithoutCheckers(t *testing.T) {
	h, _, _ := newTestHandler(&fakeOracle{})

	rec, env := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestInvalidJSONBodyIs400(t *testing.T) {
	h, _, _ := newTestHandler(&fakeOracle{})

	req := httptest.NewRequest(http.MethodPost, "/v1/patients", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
