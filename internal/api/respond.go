package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/medpro/clinic-scheduling/internal/directory"
	"github.com/medpro/clinic-scheduling/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// decodeJSON rejects unknown fields so a misspelled request field fails
// loudly instead of being silently dropped.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parsePage(r *http.Request) (page, size int) {
	page, size = 0, 10
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	return page, size
}

// writeDomainError maps domain errors to the HTTP error taxonomy:
// business-rule violations and duplicates to 400, missing entities to
// 404, everything else to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var dup *directory.DuplicateFieldError

	switch {
	case errors.Is(err, directory.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, directory.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "consultation_not_found", err.Error())
	case errors.As(err, &dup):
		writeError(w, http.StatusBadRequest, "duplicate_"+dup.Field, dup.Error())
	case errors.Is(err, directory.ErrMissingField),
		errors.Is(err, directory.ErrUnknownSpecialty):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, scheduling.ErrOutsideBusinessHours),
		errors.Is(err, scheduling.ErrClosedDay),
		errors.Is(err, scheduling.ErrInsufficientLeadTime),
		errors.Is(err, scheduling.ErrPastDateTime),
		errors.Is(err, scheduling.ErrReasonTooLong),
		errors.Is(err, scheduling.ErrPatientInactive),
		errors.Is(err, scheduling.ErrPatientAlreadyBooked),
		errors.Is(err, scheduling.ErrDoctorInactive),
		errors.Is(err, scheduling.ErrDoctorAlreadyBooked),
		errors.Is(err, scheduling.ErrNoDoctorAvailable),
		errors.Is(err, scheduling.ErrSpecialtyRequired),
		errors.Is(err, scheduling.ErrBookingInProgress),
		errors.Is(err, scheduling.ErrAlreadyCancelled),
		errors.Is(err, scheduling.ErrCancellationTooLate):
		writeError(w, http.StatusBadRequest, "rule_violation", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
