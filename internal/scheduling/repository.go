package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/medpro/clinic-scheduling/internal/directory"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrOutsideBusinessHours = errors.New("consultation outside business hours (07:00 to 19:00)")
	ErrClosedDay            = errors.New("the clinic is closed on Sundays")
	ErrInsufficientLeadTime = errors.New("consultation must be booked with the minimum lead time")
	ErrPastDateTime         = errors.New("consultation date must be in the future")
	ErrReasonTooLong        = errors.New("reason for visit exceeds the maximum length")
	ErrPatientInactive      = errors.New("consultation cannot be booked for an inactive patient")
	ErrPatientAlreadyBooked = errors.New("patient already has a consultation booked for this time")
	ErrDoctorInactive       = errors.New("consultation cannot be booked with an inactive doctor")
	ErrDoctorAlreadyBooked  = errors.New("doctor already has a consultation booked at this time")
	ErrNoDoctorAvailable    = errors.New("no doctor of this specialty is available at this time")
	ErrSpecialtyRequired    = errors.New("specialty is required when no doctor is chosen")
	ErrBookingInProgress    = errors.New("this slot is currently being booked, please retry")
	ErrAlreadyCancelled     = errors.New("only scheduled consultations can be cancelled")
	ErrCancellationTooLate  = errors.New("consultation can only be cancelled with the minimum notice")
)

// DirectoryReader is the narrow read contract the scheduler has on the
// doctor/patient directory.
type DirectoryReader interface {
	GetDoctorByID(ctx context.Context, id int64) (*directory.Doctor, error)
	GetPatientByID(ctx context.Context, id int64) (*directory.Patient, error)
}

// Repository contains all DB interactions needed by the scheduler.
type Repository interface {
	// Conflict checks
	HasDoctorAppointmentAt(ctx context.Context, doctorID int64, at time.Time) (bool, error)
	HasPatientAppointmentAt(ctx context.Context, patientID int64, at time.Time) (bool, error)
	HasPatientAppointmentBetween(ctx context.Context, patientID int64, from, to time.Time) (bool, error)

	// Random-assignment candidates: active doctors of the specialty with
	// no non-cancelled appointment at the instant.
	ListFreeDoctorsBySpecialty(ctx context.Context, specialty directory.Specialty, at time.Time) ([]directory.Doctor, error)

	// Creation and updates. CreateAppointment maps storage-level
	// uniqueness violations to the booking conflict errors.
	CreateAppointment(ctx context.Context, a *Appointment) error
	CancelAppointment(ctx context.Context, id int64, reason *string) error

	// Reads
	GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, limit, offset int) ([]AppointmentSummary, error)
	CountAppointments(ctx context.Context) (int64, error)
}
