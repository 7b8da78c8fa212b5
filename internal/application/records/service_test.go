package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/clinassist/internal/domain/patients"
	"github.com/bryanwahyu/clinassist/internal/domain/reports"
)

// --- fakes ---

type memPatients struct {
	byID map[patients.PatientID]*patients.Patient
}

func newMemPatients() *memPatients {
	return &memPatients{byID: make(map[patients.PatientID]*patients.Patient)}
}

func (m *memPatients) Save(ctx context.Context, p *patients.Patient) error {
	cp := *p
	m.byID[p.ID] = &cp
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
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPatients) Update(ctx context.Context, p *patients.Patient) error {
	if _, ok := m.byID[p.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *p
	m.byID[p.ID] = &cp
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
	saved []*reports.Report
}

func (m *memReports) Save(ctx context.Context, r *reports.Report) error {
	m.saved = append(m.saved, r)
	return nil
}

func (m *memReports) Get(ctx context.Context, id reports.ReportID) (*reports.Report, error) {
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memReports) ListByPatient(ctx context.Context, patientID string) ([]*reports.Report, error) {
	var out []*reports.Report
	for _, r := range m.saved {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

// reversingCipher makes encryption visible in stored values without
// real crypto.
type reversingCipher struct{}

func (reversingCipher) EncryptString(s string) (string, error) { return "enc:" + s, nil }
func (reversingCipher) DecryptString(s string) (string, error) {
	if len(s) > 4 && s[:4] == "enc:" {
		return s[4:], nil
	}
	return s, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memPatients, *memReports) {
	pr := newMemPatients()
	rr := &memReports{}
	svc := &Service{
		Patients: pr,
		Reports:  rr,
		Cipher:   reversingCipher{},
		Clock:    fixedClock{t: testNow},
	}
	return svc, pr, rr
}

// --- patients ---

func TestCreatePatientEncryptsSensitiveFields(t *testing.T) {
	svc, pr, _ := newTestService()

	id, err := svc.CreatePatient(context.Background(), CreatePatientCommand{
		Name:           "Jane Roe",
		Age:            44,
		Gender:         "female",
		MedicalHistory: "hypertension since 2019",
		Lifestyle:      "sedentary",
		RiskFactors:    []string{"smoking"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored := pr.byID[id]
	require.NotNil(t, stored)
	assert.Equal(t, "enc:hypertension since 2019", stored.MedicalHistory)
	assert.Equal(t, "enc:sedentary", stored.Lifestyle)
	assert.Equal(t, "Jane Roe", stored.Name, "name stays plaintext")
}

func TestGetPatientDecryptsOnTheWayOut(t *testing.T) {
	svc, _, _ := newTestService()

	id, err := svc.CreatePatient(context.Background(), CreatePatientCommand{
		Name: "Jane Roe", Gender: "female", MedicalHistory: "asthma",
	})
	require.NoError(t, err)

	p, err := svc.GetPatient(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "asthma", p.MedicalHistory)
}

func TestGetPatientNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetPatient(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdatePatientPartial(t *testing.T) {
	svc, pr, _ := newTestService()

	id, err := svc.CreatePatient(context.Background(), CreatePatientCommand{
		Name: "Jane Roe", Age: 44, Gender: "female", MedicalHistory: "asthma",
	})
	require.NoError(t, err)

	newAge := 45
	newHistory := "asthma, controlled"
	err = svc.UpdatePatient(context.Background(), id, UpdatePatientCommand{
		Age:            &newAge,
		MedicalHistory: &newHistory,
	})
	require.NoError(t, err)

	stored := pr.byID[id]
	assert.Equal(t, 45, stored.Age)
	assert.Equal(t, "Jane Roe", stored.Name, "untouched field keeps its value")
	assert.Equal(t, "enc:asthma, controlled", stored.MedicalHistory)
}

func TestDeletePatient(t *testing.T) {
	svc, pr, _ := newTestService()

	id, err := svc.CreatePatient(context.Background(), CreatePatientCommand{Name: "X", Gender: "other"})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePatient(context.Background(), id))
	assert.Empty(t, pr.byID)
	assert.ErrorIs(t, svc.DeletePatient(context.Background(), id), sql.ErrNoRows)
}

func TestListPatientsClampsLimit(t *testing.T) {
	svc, _, _ := newTestService()
	for i := 0; i < 3; i++ {
		_, err := svc.CreatePatient(context.Background(), CreatePatientCommand{Name: "P", Gender: "other"})
		require.NoError(t, err)
	}

	list, err := svc.ListPatients(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.ListPatients(context.Background(), 0, 0) // defaults to 50
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestNilCipherStoresPlaintext(t *testing.T) {
	svc, pr, _ := newTestService()
	svc.Cipher = nil

	id, err := svc.CreatePatient(context.Background(), CreatePatientCommand{
		Name: "Jane Roe", Gender: "female", MedicalHistory: "asthma",
	})
	require.NoError(t, err)
	assert.Equal(t, "asthma", pr.byID[id].MedicalHistory)
}

// --- reports ---

func TestCreateReportRequiresExistingPatient(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateReport(context.Background(), CreateReportCommand{
		PatientID: "ghost", Text: "x", Type: "pdf",
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateReportDefaultsDateToUploadTime(t *testing.T) {
	svc, _, rr := newTestService()

	pid, err := svc.CreatePatient(context.Background(), CreatePatientCommand{Name: "P", Gender: "other"})
	require.NoError(t, err)

	id, err := svc.CreateReport(context.Background(), CreateReportCommand{
		PatientID: string(pid), Text: "findings", Type: "lab-cbc",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Len(t, rr.saved, 1)
	saved := rr.saved[0]
	assert.Equal(t, testNow, saved.UploadedAt)
	assert.Equal(t, testNow.UTC().Format(time.RFC3339), saved.ReportDate)
	assert.Equal(t, reports.Type("lab-cbc"), saved.Type)
}

func TestCreateReportKeepsSuppliedDate(t *testing.T) {
	svc, _, rr := newTestService()

	pid, err := svc.CreatePatient(context.Background(), CreatePatientCommand{Name: "P", Gender: "other"})
	require.NoError(t, err)

	_, err = svc.CreateReport(context.Background(), CreateReportCommand{
		PatientID: string(pid), Text: "findings", ReportDate: "2023-11-02", Type: "pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "2023-11-02", rr.saved[0].ReportDate)
}

func TestListReportsFiltersByPatient(t *testing.T) {
	svc, _, _ := newTestService()

	pidA, err := svc.CreatePatient(context.Background(), CreatePatientCommand{Name: "A", Gender: "other"})
	require.NoError(t, err)
	pidB, err := svc.CreatePatient(context.Background(), CreatePatientCommand{Name: "B", Gender: "other"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.CreateReport(context.Background(), CreateReportCommand{PatientID: string(pidA), Text: "a", Type: "pdf"})
		require.NoError(t, err)
	}
	_, err = svc.CreateReport(context.Background(), CreateReportCommand{PatientID: string(pidB), Text: "b", Type: "pdf"})
	require.NoError(t, err)

	list, err := svc.ListReports(context.Background(), string(pidA))
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
