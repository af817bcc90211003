package handler

import (
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// OPD receipts: /v1/receipts
// ============================================================

func listReceiptsHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/receipts")
		defer span.End()

		rs, err := svc.List(ctx, r.URL.Query().Get("patient_id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Receipt]{Data: rs, Total: len(rs)})
	}
}

func listPatientReceiptsHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/patients/{patientId}/receipts")
		defer span.End()

		rs, err := svc.List(ctx, chi.URLParam(r, "patientId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Receipt]{Data: rs, Total: len(rs)})
	}
}

func createReceiptHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/receipts")
		defer span.End()

		var rec domain.Receipt
		if err := decodeJSON(w, r, &rec); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.SaveResult[domain.Receipt]{Message: "invalid request body"})
			return
		}

		created, err := svc.Create(ctx, CurrentUserFromContext(ctx), &rec)
		if err != nil {
			handleSaveError[domain.Receipt](w, err, logger)
			return
		}
		writeSaved(w, http.StatusCreated, created)
	}
}

func getReceiptHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/receipts/{receiptId}")
		defer span.End()

		rec, err := svc.Get(ctx, chi.URLParam(r, "receiptId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
