package reports

import "time"

// ID tipe untuk Report
type ReportID string

// Type tag untuk jenis report
type Type string

const (
	TypePDF   Type = "pdf"
	TypeImage Type = "image"
	TypeLab   Type = "lab"
)

// Report is a stored clinical document. Immutable once created; the
// analysis pipeline only reads it.
//
// ReportDate is kept as the raw string the extractor produced. It is
// normally RFC3339 but older uploads may carry anything; grouping deals
// with unparsable dates by bucketing them under "unknown".
type Report struct {
	ID         ReportID  `json:"id"`
	PatientID  string    `json:"patient_id"`
	Text       string    `json:"report_text"`
	ReportDate string    `json:"report_date"`
	Type       Type      `json:"type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
