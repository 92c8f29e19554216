package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medpro/clinic-scheduling/internal/directory"
)

type PgRepository struct {
	pool *pgxpool.Pool
	dir  *directory.PgRepository
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool, dir: directory.NewPgRepository(pool)}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var reason, cancellationReason *string

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.ScheduledAt,
		&a.Status,
		&reason,
		&cancellationReason,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Reason = reason
	a.CancellationReason = cancellationReason
	return &a, nil
}

// mapBookingConflict turns a violation of one of the partial unique
// indexes into the matching booking conflict error. The index is the
// authoritative double-booking guard; pre-checks only exist for
// friendlier early rejection.
func mapBookingConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}

	if strings.Contains(pgErr.ConstraintName, "patient") {
		return ErrPatientAlreadyBooked
	}
	return ErrDoctorAlreadyBooked
}

// Interface methods

func (r *PgRepository) HasDoctorAppointmentAt(ctx context.Context, doctorID int64, at time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM consultas
			WHERE doctor_id = $1
			  AND scheduled_at = $2
			  AND status <> 'CANCELLED'
		)
	`, doctorID, at).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check doctor conflict: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) HasPatientAppointmentAt(ctx context.Context, patientID int64, at time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM consultas
			WHERE patient_id = $1
			  AND scheduled_at = $2
			  AND status <> 'CANCELLED'
		)
	`, patientID, at).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient conflict: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) HasPatientAppointmentBetween(ctx context.Context, patientID int64, from, to time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM consultas
			WHERE patient_id = $1
			  AND scheduled_at BETWEEN $2 AND $3
			  AND status <> 'CANCELLED'
		)
	`, patientID, from, to).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient day conflict: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) ListFreeDoctorsBySpecialty(ctx context.Context, specialty directory.Specialty, at time.Time) ([]directory.Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.name, d.email, d.crm, d.phone, d.specialty, d.active, d.created_at, d.updated_at
		FROM doctors d
		WHERE d.active
		  AND d.specialty = $1
		  AND NOT EXISTS (
			SELECT 1 FROM consultas c
			WHERE c.doctor_id = d.id
			  AND c.scheduled_at = $2
			  AND c.status <> 'CANCELLED'
		  )
		ORDER BY d.id
	`, specialty, at)
	if err != nil {
		return nil, fmt.Errorf("list free doctors: %w", err)
	}
	defer rows.Close()

	var result []directory.Doctor
	for rows.Next() {
		var d directory.Doctor
		err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Email,
			&d.CRM,
			&d.Phone,
			&d.Specialty,
			&d.Active,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO consultas (doctor_id, patient_id, scheduled_at, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_at
	`, a.DoctorID, a.PatientID, a.ScheduledAt, a.Status, a.Reason).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create consultation: %w", mapBookingConflict(err))
	}
	return nil
}

func (r *PgRepository) CancelAppointment(ctx context.Context, id int64, reason *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consultas
		SET status = 'CANCELLED',
		    cancellation_reason = COALESCE($2, cancellation_reason)
		WHERE id = $1
		  AND status = 'SCHEDULED'
	`, id, reason)
	if err != nil {
		return fmt.Errorf("cancel consultation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or raced into a terminal state.
		if _, err := r.GetAppointmentByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyCancelled
	}
	return nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, scheduled_at, status, reason, cancellation_reason, created_at
		FROM consultas
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error) {
	a, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor, err := r.dir.GetDoctorByID(ctx, a.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load consultation doctor: %w", err)
	}

	patient, err := r.dir.GetPatientByID(ctx, a.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load consultation patient: %w", err)
	}

	return &AppointmentDetail{
		Appointment: *a,
		Doctor:      doctor,
		Patient:     patient,
	}, nil
}

func (r *PgRepository) ListAppointments(ctx context.Context, limit, offset int) ([]AppointmentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.doctor_id, d.name, c.patient_id, p.name, c.scheduled_at, c.status
		FROM consultas c
		JOIN doctors d ON d.id = c.doctor_id
		JOIN patients p ON p.id = c.patient_id
		ORDER BY c.scheduled_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	var result []AppointmentSummary
	for rows.Next() {
		var s AppointmentSummary
		err := rows.Scan(
			&s.ID,
			&s.DoctorID,
			&s.DoctorName,
			&s.PatientID,
			&s.PatientName,
			&s.ScheduledAt,
			&s.Status,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CountAppointments(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM consultas`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count consultations: %w", err)
	}
	return count, nil
}
