package reports

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id ReportID) (*Report, error)

	// ListByPatient returns every report of a patient ordered by
	// report_date ascending.
	ListByPatient(ctx context.Context, patientID string) ([]*Report, error)
}
