// Alternate report repository for deployments on Postgres
// (database.driver: postgres).
package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	domain "github.com/bryanwahyu/clinassist/internal/domain/reports"
)

func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return db, db.Ping()
}

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO clinical_reports
(id, patient_id, report_text, report_date, type, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
 report_text=EXCLUDED.report_text, report_date=EXCLUDED.report_date, type=EXCLUDED.type;
`
	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.PatientID, rep.Text, rep.ReportDate, rep.Type, rep.UploadedAt,
	)
	return err
}

func (r *ReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	const q = `
SELECT id, patient_id, report_text, report_date, type, uploaded_at
FROM clinical_reports
WHERE id=$1 LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)

	var rep domain.Report
	if err := row.Scan(&rep.ID, &rep.PatientID, &rep.Text, &rep.ReportDate, &rep.Type, &rep.UploadedAt); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.Report, error) {
	const q = `
SELECT id, patient_id, report_text, report_date, type, uploaded_at
FROM clinical_reports
WHERE patient_id=$1 ORDER BY report_date ASC;
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
