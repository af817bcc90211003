package handler

import (
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Prescriptions & eye readings
// ============================================================

func listPrescriptionsHandler(svc *service.ClinicalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/patients/{patientId}/prescriptions")
		defer span.End()

		ps, err := svc.ListPrescriptions(ctx, chi.URLParam(r, "patientId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Prescription]{Data: ps, Total: len(ps)})
	}
}

func createPrescriptionHandler(svc *service.ClinicalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/patients/{patientId}/prescriptions")
		defer span.End()

		var p domain.Prescription
		if err := decodeJSON(w, r, &p); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.SaveResult[domain.Prescription]{Message: "invalid request body"})
			return
		}
		p.PatientID = chi.URLParam(r, "patientId")

		created, err := svc.CreatePrescription(ctx, CurrentUserFromContext(ctx), &p)
		if err != nil {
			handleSaveError[domain.Prescription](w, err, logger)
			return
		}
		writeSaved(w, http.StatusCreated, created)
	}
}

func deletePrescriptionHandler(svc *service.ClinicalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/prescriptions/{prescriptionId}")
		defer span.End()

		id := chi.URLParam(r, "prescriptionId")
		if err := svc.DeletePrescription(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "prescription deleted", ID: id})
	}
}

func listEyeReadingsHandler(svc *service.ClinicalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/patients/{patientId}/eye-readings")
		defer span.End()

		es, err := svc.ListEyeExaminations(ctx, chi.URLParam(r, "patientId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.EyeExamination]{Data: es, Total: len(es)})
	}
}

func createEyeReadingHandler(svc *service.ClinicalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/patients/{patientId}/eye-readings")
		defer span.End()

		var e domain.EyeExamination
		if err := decodeJSON(w, r, &e); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.SaveResult[domain.EyeExamination]{Message: "invalid request body"})
			return
		}
		e.PatientID = chi.URLParam(r, "patientId")

		created, err := svc.RecordEyeExamination(ctx, CurrentUserFromContext(ctx), &e)
		if err != nil {
			handleSaveError[domain.EyeExamination](w, err, logger)
			return
		}
		writeSaved(w, http.StatusCreated, created)
	}
}
