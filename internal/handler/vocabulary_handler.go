package handler

import (
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Dropdown vocabularies: /v1/vocabularies
// ============================================================

func listVocabulariesHandler(svc *service.VocabularyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vocabularies")
		defer span.End()

		all, err := svc.All(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, all)
	}
}

// suggestHandler filters the options of a field by ?q=; no query lists all.
func suggestHandler(svc *service.VocabularyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vocabularies/{field}")
		defer span.End()

		field := chi.URLParam(r, "field")
		opts, err := svc.Suggest(ctx, field, r.URL.Query().Get("q"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"field": field, "options": opts})
	}
}

func commitVocabularyHandler(svc *service.VocabularyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vocabularies/{field}")
		defer span.End()

		var req domain.VocabularyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := svc.Commit(ctx, chi.URLParam(r, "field"), req.Value)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		status := http.StatusOK
		if res.Added {
			status = http.StatusCreated
		}
		writeJSON(w, status, res)
	}
}
