package scheduling

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medpro/clinic-scheduling/internal/directory"
	redisclient "github.com/medpro/clinic-scheduling/internal/redis"
)

const (
	maxReasonLen    = 255
	defaultPageSize = 10
	maxPageSize     = 100
)

type ScheduleRequest struct {
	PatientID      int64
	DoctorID       *int64
	Specialty      directory.Specialty
	ScheduledAt    time.Time
	ReasonForVisit string
}

type Service struct {
	repo   Repository
	dir    DirectoryReader
	locker redisclient.Locker
	policy Policy
	log    *zap.Logger

	// Injected so lead-time rules and the random doctor pick are
	// deterministic under test.
	now func() time.Time
	rng *rand.Rand
}

func NewService(repo Repository, dir DirectoryReader, locker redisclient.Locker, policy Policy, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		dir:    dir,
		locker: locker,
		policy: policy,
		log:    log,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithClock overrides the wall clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithRand overrides the doctor-pick random source. Test hook.
func (s *Service) WithRand(rng *rand.Rand) *Service {
	s.rng = rng
	return s
}

// Schedule validates a booking request against the active policy and the
// existing ledger, then commits it. Each rule failure short-circuits with
// its own error; nothing is written on any rejection path.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*AppointmentDetail, error) {
	at := req.ScheduledAt

	if !s.policy.WithinBusinessHours(at) {
		return nil, ErrOutsideBusinessHours
	}
	if s.policy.OnClosedDay(at) {
		return nil, ErrClosedDay
	}

	now := s.now()
	if !at.After(now) {
		return nil, ErrPastDateTime
	}
	if at.Sub(now) < s.policy.MinimumLeadTime {
		return nil, ErrInsufficientLeadTime
	}

	reason := strings.TrimSpace(req.ReasonForVisit)
	if len(reason) > maxReasonLen {
		return nil, ErrReasonTooLong
	}

	patient, err := s.dir.GetPatientByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, directory.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if s.policy.RequireActivePatient && !patient.Active {
		return nil, ErrPatientInactive
	}

	booked, err := s.patientHasConflict(ctx, patient.ID, at)
	if err != nil {
		return nil, fmt.Errorf("check patient conflict: %w", err)
	}
	if booked {
		return nil, ErrPatientAlreadyBooked
	}

	doctor, err := s.resolveDoctor(ctx, req, at)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		DoctorID:    doctor.ID,
		PatientID:   patient.ID,
		ScheduledAt: at,
		Status:      StatusScheduled,
	}
	if reason != "" {
		appt.Reason = &reason
	}

	err = s.locker.WithBookingLock(ctx, doctor.ID, at, func(lockCtx context.Context) error {
		// Re-check inside the critical section; the unique index still
		// has the final word on insert.
		taken, err := s.repo.HasDoctorAppointmentAt(lockCtx, doctor.ID, at)
		if err != nil {
			return fmt.Errorf("check doctor conflict: %w", err)
		}
		if taken {
			return ErrDoctorAlreadyBooked
		}

		return s.repo.CreateAppointment(lockCtx, appt)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	s.log.Info("consultation scheduled",
		zap.Int64("consultation_id", appt.ID),
		zap.Int64("doctor_id", doctor.ID),
		zap.Int64("patient_id", patient.ID),
		zap.Time("scheduled_at", at),
	)

	return &AppointmentDetail{
		Appointment: *appt,
		Doctor:      doctor,
		Patient:     patient,
	}, nil
}

func (s *Service) patientHasConflict(ctx context.Context, patientID int64, at time.Time) (bool, error) {
	if s.policy.PatientConflict == GranularityDay {
		from, to := s.policy.DayWindow(at)
		return s.repo.HasPatientAppointmentBetween(ctx, patientID, from, to)
	}
	return s.repo.HasPatientAppointmentAt(ctx, patientID, at)
}

// resolveDoctor returns the explicitly chosen doctor after activity and
// conflict checks, or picks one uniformly at random among the free
// doctors of the requested specialty.
func (s *Service) resolveDoctor(ctx context.Context, req ScheduleRequest, at time.Time) (*directory.Doctor, error) {
	if req.DoctorID != nil {
		doctor, err := s.dir.GetDoctorByID(ctx, *req.DoctorID)
		if err != nil {
			if errors.Is(err, directory.ErrDoctorNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("load doctor: %w", err)
		}
		if !doctor.Active {
			return nil, ErrDoctorInactive
		}

		taken, err := s.repo.HasDoctorAppointmentAt(ctx, doctor.ID, at)
		if err != nil {
			return nil, fmt.Errorf("check doctor conflict: %w", err)
		}
		if taken {
			return nil, ErrDoctorAlreadyBooked
		}
		return doctor, nil
	}

	if req.Specialty == "" {
		return nil, ErrSpecialtyRequired
	}

	candidates, err := s.repo.ListFreeDoctorsBySpecialty(ctx, req.Specialty, at)
	if err != nil {
		return nil, fmt.Errorf("list free doctors: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoDoctorAvailable
	}

	picked := candidates[s.rng.Intn(len(candidates))]
	return &picked, nil
}

// Cancel moves a scheduled consultation to its terminal cancelled state.
// The optional reason is stored only when non-blank.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}

	if appt.Status != StatusScheduled {
		return ErrAlreadyCancelled
	}

	if appt.ScheduledAt.Sub(s.now()) < s.policy.CancellationLeadTime {
		return ErrCancellationTooLate
	}

	var stored *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		stored = &trimmed
	}

	if err := s.repo.CancelAppointment(ctx, id, stored); err != nil {
		return err
	}

	s.log.Info("consultation cancelled",
		zap.Int64("consultation_id", id),
		zap.Time("scheduled_at", appt.ScheduledAt),
	)

	return nil
}

// Get retrieves a fully hydrated consultation by ID.
func (s *Service) Get(ctx context.Context, id int64) (*AppointmentDetail, error) {
	return s.repo.GetAppointmentDetail(ctx, id)
}

// List returns a page of consultations ordered by scheduled time
// ascending, plus the total count for the page envelope.
func (s *Service) List(ctx context.Context, limit, offset int) ([]AppointmentSummary, int64, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.ListAppointments(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}

	total, err := s.repo.CountAppointments(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	return items, total, nil
}
