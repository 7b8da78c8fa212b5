package records

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/clinassist/internal/application"
	"github.com/bryanwahyu/clinassist/internal/domain/patients"
	"github.com/bryanwahyu/clinassist/internal/domain/reports"
)

// Service implements use-cases for patients and reports. Sensitive
// patient fields (medical_history, lifestyle) go through the
// FieldCipher before touching the repository and are decrypted on the
// way out. Safe for concurrent use.
type Service struct {
	Patients patients.Repository
	Reports  reports.Repository
	Cipher   patients.FieldCipher
	Clock    application.Clock
}

type CreatePatientCommand struct {
	Name           string
	Age            int
	Gender         string
	MedicalHistory string
	Lifestyle      string
	RiskFactors    []string
}

func (s *Service) CreatePatient(ctx context.Context, cmd CreatePatientCommand) (patients.PatientID, error) {
	p := &patients.Patient{
		ID:          patients.PatientID(uuid.New().String()),
		Name:        cmd.Name,
		Age:         cmd.Age,
		Gender:      cmd.Gender,
		RiskFactors: cmd.RiskFactors,
	}
	var err error
	if p.MedicalHistory, err = s.sealField(cmd.MedicalHistory); err != nil {
		return "", err
	}
	if p.Lifestyle, err = s.sealField(cmd.Lifestyle); err != nil {
		return "", err
	}
	if err := s.Patients.Save(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *Service) GetPatient(ctx context.Context, id patients.PatientID) (*patients.Patient, error) {
	p, err := s.Patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.MedicalHistory, err = s.openField(p.MedicalHistory); err != nil {
		return nil, fmt.Errorf("decrypt medical_history: %w", err)
	}
	if p.Lifestyle, err = s.openField(p.Lifestyle); err != nil {
		return nil, fmt.Errorf("decrypt lifestyle: %w", err)
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*patients.Summary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Patients.List(ctx, limit, offset)
}

type UpdatePatientCommand struct {
	Name           *string
	Age            *int
	Gender         *string
	MedicalHistory *string
	Lifestyle      *string
	RiskFactors    []string
}

func (s *Service) UpdatePatient(ctx context.Context, id patients.PatientID, cmd UpdatePatientCommand) error {
	p, err := s.Patients.Get(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Name != nil {
		p.Name = *cmd.Name
	}
	if cmd.Age != nil {
		p.Age = *cmd.Age
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.MedicalHistory != nil {
		if p.MedicalHistory, err = s.sealField(*cmd.MedicalHistory); err != nil {
			return err
		}
	}
	if cmd.Lifestyle != nil {
		if p.Lifestyle, err = s.sealField(*cmd.Lifestyle); err != nil {
			return err
		}
	}
	if cmd.RiskFactors != nil {
		p.RiskFactors = cmd.RiskFactors
	}
	return s.Patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id patients.PatientID) error {
	return s.Patients.Delete(ctx, id)
}

type CreateReportCommand struct {
	PatientID  string
	Text       string
	ReportDate string
	Type       string
}

// CreateReport stores a report whose text was already extracted by the
// upload collaborator (OCR/PDF extraction is external). A missing
// report date falls back to the upload time.
func (s *Service) CreateReport(ctx context.Context, cmd CreateReportCommand) (reports.ReportID, error) {
	if cmd.PatientID == "" {
		return "", fmt.Errorf("patient_id is required")
	}
	if _, err := s.Patients.Get(ctx, patients.PatientID(cmd.PatientID)); err != nil {
		return "", err
	}

	now := s.Clock.Now()
	rd := cmd.ReportDate
	if rd == "" {
		rd = now.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	r := &reports.Report{
		ID:         reports.ReportID(uuid.New().String()),
		PatientID:  cmd.PatientID,
		Text:       cmd.Text,
		ReportDate: rd,
		Type:       reports.Type(cmd.Type),
		UploadedAt: now,
	}
	if err := s.Reports.Save(ctx, r); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *Service) ListReports(ctx context.Context, patientID string) ([]*reports.Report, error) {
	return s.Reports.ListByPatient(ctx, patientID)
}

func (s *Service) sealField(v string) (string, error) {
	if v == "" || s.Cipher == nil {
		return v, nil
	}
	return s.Cipher.EncryptString(v)
}

func (s *Service) openField(v string) (string, error) {
	if v == "" || s.Cipher == nil {
		return v, nil
	}
	return s.Cipher.DecryptString(v)
}
