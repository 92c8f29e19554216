package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medpro/clinic-scheduling/internal/directory"
	"github.com/medpro/clinic-scheduling/internal/scheduling"
)

func scheduleConsultationHandler(svc SchedulerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleConsultationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
			return
		}

		if req.PatientID == 0 {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientId is required")
			return
		}
		if req.DateTime.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid_date_time", "dateTime is required")
			return
		}

		sreq := scheduling.ScheduleRequest{
			PatientID:      req.PatientID,
			DoctorID:       req.DoctorID,
			ScheduledAt:    req.DateTime,
			ReasonForVisit: req.ReasonForVisit,
		}

		if req.Specialty != "" {
			specialty, err := directory.ParseSpecialty(req.Specialty)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			sreq.Specialty = specialty
		}

		detail, err := svc.Schedule(r.Context(), sreq)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Location", fmt.Sprintf("/consultas/%d", detail.ID))
		writeJSON(w, http.StatusCreated, toConsultationResponse(detail))
	}
}

func cancelConsultationHandler(svc SchedulerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_consultation_id", "id must be an integer")
			return
		}

		// The cancellation body is optional.
		var req CancelConsultationRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
			return
		}

		if err := svc.Cancel(r.Context(), id, req.CancellationReason); err != nil {
			writeDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getConsultationHandler(svc SchedulerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_consultation_id", "id must be an integer")
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toConsultationResponse(detail))
	}
}

func listConsultationsHandler(svc SchedulerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, size := parsePage(r)

		items, total, err := svc.List(r.Context(), size, page*size)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		content := make([]ConsultationSummaryResponse, 0, len(items))
		for _, item := range items {
			content = append(content, toConsultationSummary(item))
		}

		writeJSON(w, http.StatusOK, PageResponse[ConsultationSummaryResponse]{
			Content:       content,
			Page:          page,
			Size:          size,
			TotalElements: total,
		})
	}
}
