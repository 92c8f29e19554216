package scheduling

import (
	"time"

	"github.com/medpro/clinic-scheduling/internal/directory"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCancelled Status = "CANCELLED"
)

type Appointment struct {
	ID                 int64
	DoctorID           int64
	PatientID          int64
	ScheduledAt        time.Time
	Status             Status
	Reason             *string
	CancellationReason *string
	CreatedAt          time.Time
}

// AppointmentDetail is the fully hydrated view returned on create and get.
type AppointmentDetail struct {
	Appointment
	Doctor  *directory.Doctor
	Patient *directory.Patient
}

// AppointmentSummary is the flat listing row.
type AppointmentSummary struct {
	ID          int64
	DoctorID    int64
	DoctorName  string
	PatientID   int64
	PatientName string
	ScheduledAt time.Time
	Status      Status
}
