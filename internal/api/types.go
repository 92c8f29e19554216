package api

import (
	"time"

	"github.com/medpro/clinic-scheduling/internal/directory"
	"github.com/medpro/clinic-scheduling/internal/scheduling"
)

type ScheduleConsultationRequest struct {
	DoctorID       *int64    `json:"doctorId,omitempty"`
	PatientID      int64     `json:"patientId"`
	DateTime       time.Time `json:"dateTime"`
	Specialty      string    `json:"specialty,omitempty"`
	ReasonForVisit string    `json:"reasonForVisit,omitempty"`
}

type CancelConsultationRequest struct {
	CancellationReason string `json:"cancellationReason,omitempty"`
}

type AddressResponse struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	Zip        string `json:"zip"`
}

type DoctorResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CRM       string `json:"crm"`
	Phone     string `json:"phone,omitempty"`
	Specialty string `json:"specialty"`
	Active    bool   `json:"active"`
}

type PatientResponse struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	CPF     string          `json:"cpf"`
	Phone   string          `json:"phone,omitempty"`
	Address AddressResponse `json:"address"`
	Active  bool            `json:"active"`
}

type ConsultationResponse struct {
	ID                 int64           `json:"id"`
	DateTime           time.Time       `json:"dateTime"`
	Status             string          `json:"status"`
	ReasonForVisit     string          `json:"reasonForVisit,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	Doctor             DoctorResponse  `json:"doctor"`
	Patient            PatientResponse `json:"patient"`
}

type ConsultationSummaryResponse struct {
	ID          int64     `json:"id"`
	DoctorID    int64     `json:"doctorId"`
	DoctorName  string    `json:"doctorName"`
	PatientID   int64     `json:"patientId"`
	PatientName string    `json:"patientName"`
	DateTime    time.Time `json:"dateTime"`
	Status      string    `json:"status"`
}

type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
}

type RegisterDoctorRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	CRM       string `json:"crm"`
	Phone     string `json:"phone,omitempty"`
	Specialty string `json:"specialty"`
}

type UpdateDoctorRequest struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type AddressRequest struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	Zip        string `json:"zip"`
}

type RegisterPatientRequest struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	CPF     string         `json:"cpf"`
	Phone   string         `json:"phone,omitempty"`
	Address AddressRequest `json:"address"`
}

type UpdatePatientRequest struct {
	Name    string          `json:"name,omitempty"`
	Phone   string          `json:"phone,omitempty"`
	Address *AddressRequest `json:"address,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toDoctorResponse(d *directory.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		CRM:       d.CRM,
		Phone:     d.Phone,
		Specialty: string(d.Specialty),
		Active:    d.Active,
	}
}

func toPatientResponse(p *directory.Patient) PatientResponse {
	return PatientResponse{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
		CPF:   p.CPF,
		Phone: p.Phone,
		Address: AddressResponse{
			Street:     p.Address.Street,
			Number:     p.Address.Number,
			Complement: p.Address.Complement,
			District:   p.Address.District,
			City:       p.Address.City,
			State:      p.Address.State,
			Zip:        p.Address.Zip,
		},
		Active: p.Active,
	}
}

func toConsultationResponse(d *scheduling.AppointmentDetail) ConsultationResponse {
	resp := ConsultationResponse{
		ID:       d.ID,
		DateTime: d.ScheduledAt,
		Status:   string(d.Status),
		Doctor:   toDoctorResponse(d.Doctor),
		Patient:  toPatientResponse(d.Patient),
	}
	if d.Reason != nil {
		resp.ReasonForVisit = *d.Reason
	}
	if d.CancellationReason != nil {
		resp.CancellationReason = *d.CancellationReason
	}
	return resp
}

func toConsultationSummary(s scheduling.AppointmentSummary) ConsultationSummaryResponse {
	return ConsultationSummaryResponse{
		ID:          s.ID,
		DoctorID:    s.DoctorID,
		DoctorName:  s.DoctorName,
		PatientID:   s.PatientID,
		PatientName: s.PatientName,
		DateTime:    s.ScheduledAt,
		Status:      string(s.Status),
	}
}
