package mysql

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

// risk_factors disimpan sebagai JSON text
func encodeRiskFactors(v []string) (string, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeRiskFactors(s string) []string {
	var out []string
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func (r *PatientRepository) Save(ctx context.Context, p *domain.Patient) error {
	rf, err := encodeRiskFactors(p.RiskFactors)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO patients
(id, name, age, gender, medical_history, lifestyle, risk_factors)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 name=VALUES(name), age=VALUES(age), gender=VALUES(gender),
 medical_history=VALUES(medical_history), lifestyle=VALUES(lifestyle),
 risk_factors=VALUES(risk_factors);
`
	_, err = r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Age, p.Gender, p.MedicalHistory, p.Lifestyle, rf,
	)
	return err
}

func (r *PatientRepository) Get(ctx context.Context, id domain.PatientID) (*domain.Patient, error) {
	const q = `
SELECT id, name, age, gender, medical_history, lifestyle, risk_factors
FROM patients
WHERE id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, id)

	var p domain.Patient
	var rf string
	if err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.MedicalHistory, &p.Lifestyle, &rf); err != nil {
		return nil, err
	}
	p.RiskFactors = decodeRiskFactors(rf)
	return &p, nil
}

func (r *PatientRepository) List(ctx context.Context, limit, offset int) ([]*domain.Summary, error) {
	const q = `
SELECT id, name FROM patients ORDER BY name ASC LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
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
	rf, err := encodeRiskFactors(p.RiskFactors)
	if err != nil {
		return err
	}
	const q = `
UPDATE patients
SET name=?, age=?, gender=?, medical_history=?, lifestyle=?, risk_factors=?
WHERE id=?;
`
	// existence is checked by the caller via Get; an identical update
	// reports zero affected rows on MySQL, so don't treat that as missing
	_, err = r.db.ExecContext(ctx, q,
		p.Name, p.Age, p.Gender, p.MedicalHistory, p.Lifestyle, rf, p.ID,
	)
	return err
}

func (r *PatientRepository) Delete(ctx context.Context, id domain.PatientID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id=?;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}
