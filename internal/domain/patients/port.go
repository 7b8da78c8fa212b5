package patients

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id PatientID) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Summary, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id PatientID) error
}

// FieldCipher port: encrypts sensitive free-text fields at rest.
// medical_history and lifestyle pass through it before hitting the repo.
type FieldCipher interface {
	EncryptString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}
