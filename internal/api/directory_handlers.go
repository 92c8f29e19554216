package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medpro/clinic-scheduling/internal/directory"
)

func registerDoctorHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterDoctorRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
			return
		}

		doctor, err := svc.RegisterDoctor(r.Context(), directory.Doctor{
			Name:      req.Name,
			Email:     req.Email,
			CRM:       req.CRM,
			Phone:     req.Phone,
			Specialty: directory.Specialty(req.Specialty),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDoctorResponse(doctor))
	}
}

func getDoctorHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be an integer")
			return
		}

		doctor, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(doctor))
	}
}

func listDoctorsHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, size := parsePage(r)

		doctors, err := svc.ListDoctors(r.Context(), size, page*size)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		content := make([]DoctorResponse, 0, len(doctors))
		for i := range doctors {
			content = append(content, toDoctorResponse(&doctors[i]))
		}

		writeJSON(w, http.StatusOK, PageResponse[DoctorResponse]{
			Content:       content,
			Page:          page,
			Size:          size,
			TotalElements: int64(len(content)),
		})
	}
}

func updateDoctorHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be an integer")
			return
		}

		var req UpdateDoctorRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
			return
		}

		doctor, err := svc.UpdateDoctor(r.Context(), id, req.Name, req.Phone)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(doctor))
	}
}

func deactivateDoctorHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be an integer")
			return
		}

		if err := svc.DeactivateDoctor(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func registerPatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
			return
		}

		patient, err := svc.RegisterPatient(r.Context(), directory.Patient{
			Name:    req.Name,
			Email:   req.Email,
			CPF:     req.CPF,
			Phone:   req.Phone,
			Address: toAddress(req.Address),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(patient))
	}
}

func getPatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be an integer")
			return
		}

		patient, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(patient))
	}
}

func listPatientsHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, size := parsePage(r)

		patients, err := svc.ListPatients(r.Context(), size, page*size)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		content := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			content = append(content, toPatientResponse(&patients[i]))
		}

		writeJSON(w, http.StatusOK, PageResponse[PatientResponse]{
			Content:       content,
			Page:          page,
			Size:          size,
			TotalElements: int64(len(content)),
		})
	}
}

func updatePatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be an integer")
			return
		}

		var req UpdatePatientRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
			return
		}

		var addr *directory.Address
		if req.Address != nil {
			a := toAddress(*req.Address)
			addr = &a
		}

		patient, err := svc.UpdatePatient(r.Context(), id, req.Name, req.Phone, addr)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(patient))
	}
}

func deactivatePatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be an integer")
			return
		}

		if err := svc.DeactivatePatient(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func toAddress(a AddressRequest) directory.Address {
	return directory.Address{
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		Zip:        a.Zip,
	}
}
