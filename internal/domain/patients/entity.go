package patients

// ID tipe untuk Patient
type PatientID string

// Aggregate Root: Patient
type Patient struct {
	ID             PatientID `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"` // male | female | other
	MedicalHistory string    `json:"medical_history,omitempty"`
	Lifestyle      string    `json:"lifestyle,omitempty"`
	RiskFactors    []string  `json:"risk_factors,omitempty"`
}

// Summary is the list projection (no sensitive fields).
type Summary struct {
	ID   PatientID `json:"id"`
	Name string    `json:"name"`
}
