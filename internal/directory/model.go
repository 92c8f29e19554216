package directory

import (
	"fmt"
	"strings"
	"time"
)

type Specialty string

const (
	SpecialtyOrthopedics Specialty = "ORTOPEDIA"
	SpecialtyCardiology  Specialty = "CARDIOLOGIA"
	SpecialtyGynecology  Specialty = "GINECOLOGIA"
	SpecialtyDermatology Specialty = "DERMATOLOGIA"
)

func ParseSpecialty(s string) (Specialty, error) {
	switch Specialty(strings.ToUpper(strings.TrimSpace(s))) {
	case SpecialtyOrthopedics:
		return SpecialtyOrthopedics, nil
	case SpecialtyCardiology:
		return SpecialtyCardiology, nil
	case SpecialtyGynecology:
		return SpecialtyGynecology, nil
	case SpecialtyDermatology:
		return SpecialtyDermatology, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSpecialty, s)
	}
}

type Doctor struct {
	ID        int64
	Name      string
	Email     string
	CRM       string
	Phone     string
	Specialty Specialty
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Address struct {
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	Zip        string
}

type Patient struct {
	ID        int64
	Name      string
	Email     string
	CPF       string
	Phone     string
	Address   Address
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
