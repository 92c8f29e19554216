package directory

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// RegisterDoctor validates the required registration fields and inserts
// the doctor as active.
func (s *Service) RegisterDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.CRM = strings.TrimSpace(d.CRM)

	switch {
	case d.Name == "":
		return nil, missingField("name")
	case d.Email == "":
		return nil, missingField("email")
	case d.CRM == "":
		return nil, missingField("crm")
	}

	if _, err := ParseSpecialty(string(d.Specialty)); err != nil {
		return nil, err
	}

	if err := s.repo.InsertDoctor(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]Doctor, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListActiveDoctors(ctx, limit, offset)
}

// UpdateDoctor changes contact fields only. Name falls back to the
// stored value when blank; registration identifiers are immutable.
func (s *Service) UpdateDoctor(ctx context.Context, id int64, name, phone string) (*Doctor, error) {
	d, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		d.Name = name
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		d.Phone = phone
	}

	if err := s.repo.UpdateDoctor(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeactivateDoctor is a soft delete: the record stays, the flag flips.
func (s *Service) DeactivateDoctor(ctx context.Context, id int64) error {
	return s.repo.DeactivateDoctor(ctx, id)
}

// RegisterPatient validates the required registration fields and inserts
// the patient as active.
func (s *Service) RegisterPatient(ctx context.Context, p Patient) (*Patient, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.CPF = strings.TrimSpace(p.CPF)

	switch {
	case p.Name == "":
		return nil, missingField("name")
	case p.Email == "":
		return nil, missingField("email")
	case p.CPF == "":
		return nil, missingField("cpf")
	case p.Address.Street == "":
		return nil, missingField("address.street")
	case p.Address.City == "":
		return nil, missingField("address.city")
	}

	if err := s.repo.InsertPatient(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]Patient, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListActivePatients(ctx, limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, id int64, name, phone string, addr *Address) (*Patient, error) {
	p, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		p.Phone = phone
	}
	if addr != nil {
		p.Address = *addr
	}

	if err := s.repo.UpdatePatient(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeactivatePatient is a soft delete: the record stays, the flag flips.
func (s *Service) DeactivatePatient(ctx context.Context, id int64) error {
	return s.repo.DeactivatePatient(ctx, id)
}
