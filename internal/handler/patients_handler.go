package handler

import (
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Patients: /v1/patients
// ============================================================

func listPatientsHandler(svc *service.PatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/patients")
		defer span.End()

		ps, err := svc.List(ctx, r.URL.Query().Get("search"), parseLimit(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Patient]{Data: ps, Total: len(ps)})
	}
}

func createPatientHandler(svc *service.PatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/patients")
		defer span.End()

		var p domain.Patient
		if err := decodeJSON(w, r, &p); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.SaveResult[domain.Patient]{Message: "invalid request body"})
			return
		}

		created, err := svc.Create(ctx, CurrentUserFromContext(ctx), &p)
		if err != nil {
			handleSaveError[domain.Patient](w, err, logger)
			return
		}
		writeSaved(w, http.StatusCreated, created)
	}
}

func getPatientHandler(svc *service.PatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/patients/{patientId}")
		defer span.End()

		p, err := svc.Get(ctx, chi.URLParam(r, "patientId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updatePatientHandler(svc *service.PatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/patients/{patientId}")
		defer span.End()

		var p domain.Patient
		if err := decodeJSON(w, r, &p); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.SaveResult[domain.Patient]{Message: "invalid request body"})
			return
		}

		updated, err := svc.Update(ctx, chi.URLParam(r, "patientId"), &p)
		if err != nil {
			handleSaveError[domain.Patient](w, err, logger)
			return
		}
		writeSaved(w, http.StatusOK, updated)
	}
}

func deletePatientHandler(svc *service.PatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/patients/{patientId}")
		defer span.End()

		id := chi.URLParam(r, "patientId")
		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "patient deleted", ID: id})
	}
}
