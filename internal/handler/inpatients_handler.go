package handler

import (
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// In-patient admissions: /v1/inpatients
// ============================================================

func listInPatientsHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inpatients")
		defer span.End()

		recs, err := svc.List(ctx, r.URL.Query().Get("search"), parseLimit(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.InPatient]{Data: recs, Total: len(recs)})
	}
}

func newAdmissionHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inpatients/new")
		defer span.End()

		form, err := svc.NewAdmission(ctx, CurrentUserFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, form)
	}
}

func calculateHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/inpatients/calculate")
		defer span.End()

		var in domain.BillingInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		calc, err := svc.Calculate(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, calc)
	}
}

func getInPatientHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inpatients/{inpatientId}")
		defer span.End()

		id := chi.URLParam(r, "inpatientId")
		span.SetAttributes(attribute.String("inpatient.id", id))

		rec, err := svc.Get(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func loadFormHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inpatients/{inpatientId}/form")
		defer span.End()

		form, err := svc.LoadForm(ctx, chi.URLParam(r, "inpatientId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, form)
	}
}

func createInPatientHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/inpatients")
		defer span.End()

		var rec domain.InPatient
		if err := decodeJSON(w, r, &rec); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.SaveResult[domain.InPatient]{Message: "invalid request body"})
			return
		}

		saved, err := svc.Create(ctx, CurrentUserFromContext(ctx), &rec)
		if err != nil {
			handleSaveError[domain.InPatient](w, err, logger)
			return
		}
		writeSaved(w, http.StatusCreated, saved)
	}
}

func updateInPatientHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/inpatients/{inpatientId}")
		defer span.End()

		id := chi.URLParam(r, "inpatientId")
		span.SetAttributes(attribute.String("inpatient.id", id))

		var rec domain.InPatient
		if err := decodeJSON(w, r, &rec); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.SaveResult[domain.InPatient]{Message: "invalid request body"})
			return
		}

		saved, err := svc.Update(ctx, CurrentUserFromContext(ctx), id, &rec)
		if err != nil {
			handleSaveError[domain.InPatient](w, err, logger)
			return
		}
		writeSaved(w, http.StatusOK, saved)
	}
}

func deleteInPatientHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/inpatients/{inpatientId}")
		defer span.End()

		id := chi.URLParam(r, "inpatientId")
		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "inpatient deleted", ID: id})
	}
}

func addPaymentHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/inpatients/{inpatientId}/payments")
		defer span.End()

		var req domain.PaymentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.SaveResult[domain.InPatient]{Message: "invalid request body"})
			return
		}

		saved, err := svc.AddPayment(ctx, CurrentUserFromContext(ctx), chi.URLParam(r, "inpatientId"), &req)
		if err != nil {
			handleSaveError[domain.InPatient](w, err, logger)
			return
		}
		writeSaved(w, http.StatusCreated, saved)
	}
}

func removePaymentHandler(svc *service.InPatientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/inpatients/{inpatientId}/payments/{paymentId}")
		defer span.End()

		saved, err := svc.RemovePayment(ctx, CurrentUserFromContext(ctx),
			chi.URLParam(r, "inpatientId"), chi.URLParam(r, "paymentId"))
		if err != nil {
			handleSaveError[domain.InPatient](w, err, logger)
			return
		}
		writeSaved(w, http.StatusOK, saved)
	}
}
