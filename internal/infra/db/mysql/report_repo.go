package mysql

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/clinassist/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save insert/update Report record. Reports are immutable in practice;
// the upsert only exists so re-ingesting an upload is idempotent.
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO clinical_reports
(id, patient_id, report_text, report_date, type, uploaded_at)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 report_text=VALUES(report_text), report_date=VALUES(report_date), type=VALUES(type);
`
	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.PatientID, rep.Text, rep.ReportDate, rep.Type, rep.UploadedAt,
	)
	return err
}

// Get by ID
func (r *ReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	const q = `
SELECT id, patient_id, report_text, report_date, type, uploaded_at
FROM clinical_reports
WHERE id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)

	var rep domain.Report
	if err := row.Scan(&rep.ID, &rep.PatientID, &rep.Text, &rep.ReportDate, &rep.Type, &rep.UploadedAt); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListByPatient urut report_date ascending. report_date is stored as
// the raw extracted string; RFC3339 sorts chronologically, anything
// unparsable sorts wherever the string puts it and is bucketed as
// "unknown" downstream anyway.
func (r *ReportRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.Report, error) {
	const q = `
SELECT id, patient_id, report_text, report_date, type, uploaded_at
FROM clinical_reports
WHERE patient_id=? ORDER BY report_date ASC;
`
	rows, err := r.db.QueryContext(ctx, q, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Report
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(&rep.ID, &rep.PatientID, &rep.Text, &rep.ReportDate, &rep.Type, &rep.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}
