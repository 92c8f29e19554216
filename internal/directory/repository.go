package directory

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrUnknownSpecialty = errors.New("unknown specialty")
	ErrMissingField     = errors.New("missing required field")
)

// DuplicateFieldError reports a unique-constraint violation on a
// registration field (crm, cpf, email).
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("value already registered for field %q", e.Field)
}

// Repository contains all DB interactions needed by the directory service.
type Repository interface {
	InsertDoctor(ctx context.Context, d *Doctor) error
	GetDoctorByID(ctx context.Context, id int64) (*Doctor, error)
	ListActiveDoctors(ctx context.Context, limit, offset int) ([]Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error
	DeactivateDoctor(ctx context.Context, id int64) error

	InsertPatient(ctx context.Context, p *Patient) error
	GetPatientByID(ctx context.Context, id int64) (*Patient, error)
	ListActivePatients(ctx context.Context, limit, offset int) ([]Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	DeactivatePatient(ctx context.Context, id int64) error
}
