package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var complement *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.CPF,
		&p.Phone,
		&p.Address.Street,
		&p.Address.Number,
		&complement,
		&p.Address.District,
		&p.Address.City,
		&p.Address.State,
		&p.Address.Zip,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if complement != nil {
		p.Address.Complement = *complement
	}
	return &p, nil
}

// mapUniqueViolation turns a 23505 into a field-specific duplicate error
// based on the violated constraint name.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}

	switch {
	case strings.Contains(pgErr.ConstraintName, "crm"):
		return &DuplicateFieldError{Field: "crm"}
	case strings.Contains(pgErr.ConstraintName, "cpf"):
		return &DuplicateFieldError{Field: "cpf"}
	case strings.Contains(pgErr.ConstraintName, "email"):
		return &DuplicateFieldError{Field: "email"}
	default:
		return &DuplicateFieldError{Field: "unknown"}
	}
}

// Interface methods

func (r *PgRepository) InsertDoctor(ctx context.Context, d *Doctor) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (name, email, crm, phone, specialty, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, now(), now())
		RETURNING id, active, created_at, updated_at
	`, d.Name, d.Email, d.CRM, d.Phone, d.Specialty).Scan(&d.ID, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", mapUniqueViolation(err))
	}
	return nil
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id int64) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, crm, phone, specialty, active, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListActiveDoctors(ctx context.Context, limit, offset int) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, crm, phone, specialty, active, created_at, updated_at
		FROM doctors
		WHERE active
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, d *Doctor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET name = $2,
		    phone = $3,
		    updated_at = now()
		WHERE id = $1
	`, d.ID, d.Name, d.Phone)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) DeactivateDoctor(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET active = false,
		    updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) InsertPatient(ctx context.Context, p *Patient) error {
	var complement *string
	if p.Address.Complement != "" {
		complement = &p.Address.Complement
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO patients (name, email, cpf, phone,
			street, number, complement, district, city, state, zip,
			active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true, now(), now())
		RETURNING id, active, created_at, updated_at
	`, p.Name, p.Email, p.CPF, p.Phone,
		p.Address.Street, p.Address.Number, complement, p.Address.District,
		p.Address.City, p.Address.State, p.Address.Zip,
	).Scan(&p.ID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", mapUniqueViolation(err))
	}
	return nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, cpf, phone,
		       street, number, complement, district, city, state, zip,
		       active, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListActivePatients(ctx context.Context, limit, offset int) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, cpf, phone,
		       street, number, complement, district, city, state, zip,
		       active, created_at, updated_at
		FROM patients
		WHERE active
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p *Patient) error {
	var complement *string
	if p.Address.Complement != "" {
		complement = &p.Address.Complement
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $2,
		    phone = $3,
		    street = $4,
		    number = $5,
		    complement = $6,
		    district = $7,
		    city = $8,
		    state = $9,
		    zip = $10,
		    updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.Phone,
		p.Address.Street, p.Address.Number, complement, p.Address.District,
		p.Address.City, p.Address.State, p.Address.Zip)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) DeactivatePatient(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET active = false,
		    updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}
