package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	domain "github.com/bryanwahyu/clinassist/internal/domain/patients"
)

type PatientRepository struct {
	db *sql.DB
}

func NewPatientRepository(db *sql.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Save(ctx context.Context, p *domain.Patient) error {
	rf, err := json.Marshal(p.RiskFactors)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO patients
(id, name, age, gender, medical_history, lifestyle, risk_factors)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
 name=EXCLUDED.name, age=EXCLUDED.age, gender=EXCLUDED.gender,
 medical_history=EXCLUDED.medical_history, lifestyle=EXCLUDED.lifestyle,
 risk_factors=EXCLUDED.risk_factors;
`
	_, err = r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Age, p.Gender, p.MedicalHistory, p.Lifestyle, string(rf),
	)
	return err
}

func (r *PatientRepository) Get(ctx context.Context, id domain.PatientID) (*domain.Patient, error) {
	const q = `
SELECT id, name, age, gender, medical_history, lifestyle, risk_factors
FROM patients
WHERE id=$1 LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)

	var p domain.Patient
	var rf string
	if err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.MedicalHistory, &p.Lifestyle, &rf); err != nil {
		return nil, err
	}
	if rf != "" {
		_ = json.Unmarshal([]byte(rf), &p.RiskFactors)
	}
	return &p, nil
}

func (r *PatientRepository) List(ctx context.Context, limit, offset int) ([]*domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM patients ORDER BY name ASC LIMIT $1 OFFSET $2;`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Summary
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *PatientRepository) Update(ctx context.Context, p *domain.Patient) error {
	rf, err := json.Marshal(p.RiskFactors)
	if err != nil {
		return err
	}
	const q = `
UPDATE patients
SET name=$1, age=$2, gender=$3, medical_history=$4, lifestyle=$5, risk_factors=$6
WHERE id=$7;
`
	_, err = r.db.ExecContext(ctx, q,
		p.Name, p.Age, p.Gender, p.MedicalHistory, p.Lifestyle, string(rf), p.ID,
	)
	return err
}

func (r *PatientRepository) Delete(ctx context.Context, id domain.PatientID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}
