package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/eyecare-bfa-go/internal/port"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"
	"github.com/boddenberg/eyecare-bfa-go/internal/vocabulary"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the use cases served over HTTP. Routes of a nil service
// are not mounted; without Auth every /v1 route answers 503.
type Services struct {
	InPatients *service.InPatientService
	Vocabulary *service.VocabularyService
	Patients   *service.PatientService
	Clinical   *service.ClinicalService
	Receipts   *service.ReceiptService
	Auth       *service.AuthService
	Store      port.HealthChecker
}

// NewRouter creates the HTTP router with all routes and middleware.
// rateLimitRPS caps /v1 requests per client IP; zero disables the limit.
func NewRouter(svcs Services, rateLimitRPS int, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if rateLimitRPS > 0 {
			r.Use(httprate.LimitByIP(rateLimitRPS, time.Second))
		}

		if svcs.Auth == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "auth service unavailable: record store not configured")
			}))
			return
		}

		// Public
		r.Post("/auth/login", authLoginHandler(svcs.Auth, logger))

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			r.Get("/auth/me", authMeHandler())
			r.Get("/metrics/billing", billingMetricsHandler(metrics))

			// =============================================
			// In-patient admissions & billing
			// =============================================
			if s := svcs.InPatients; s != nil {
				r.Route("/inpatients", func(r chi.Router) {
					r.Get("/", listInPatientsHandler(s, logger))
					r.Post("/", createInPatientHandler(s, logger))
					r.Get("/new", newAdmissionHandler(s, logger))
					r.Post("/calculate", calculateHandler(s, logger))
					r.Get("/{inpatientId}", getInPatientHandler(s, logger))
					r.Get("/{inpatientId}/form", loadFormHandler(s, logger))
					r.Put("/{inpatientId}", updateInPatientHandler(s, logger))
					r.Delete("/{inpatientId}", deleteInPatientHandler(s, logger))
					r.Post("/{inpatientId}/payments", addPaymentHandler(s, logger))
					r.Delete("/{inpatientId}/payments/{paymentId}", removePaymentHandler(s, logger))
				})
			}

			// =============================================
			// Dropdown vocabularies
			// =============================================
			if s := svcs.Vocabulary; s != nil {
				r.Get("/vocabularies", listVocabulariesHandler(s, logger))
				r.Get("/vocabularies/{field}", suggestHandler(s, logger))
				r.Post("/vocabularies/{field}", commitVocabularyHandler(s, logger))
			}

			// =============================================
			// Patients
			// =============================================
			if s := svcs.Patients; s != nil {
				r.Get("/patients", listPatientsHandler(s, logger))
				r.Post("/patients", createPatientHandler(s, logger))
				r.Get("/patients/{patientId}", getPatientHandler(s, logger))
				r.Put("/patients/{patientId}", updatePatientHandler(s, logger))
				r.Delete("/patients/{patientId}", deletePatientHandler(s, logger))
			}

			// =============================================
			// Prescriptions & eye readings
			// =============================================
			if s := svcs.Clinical; s != nil {
				r.Get("/patients/{patientId}/prescriptions", listPrescriptionsHandler(s, logger))
				r.Post("/patients/{patientId}/prescriptions", createPrescriptionHandler(s, logger))
				r.Delete("/prescriptions/{prescriptionId}", deletePrescriptionHandler(s, logger))
				r.Get("/patients/{patientId}/eye-readings", listEyeReadingsHandler(s, logger))
				r.Post("/patients/{patientId}/eye-readings", createEyeReadingHandler(s, logger))
			}

			// =============================================
			// OPD receipts
			// =============================================
			if s := svcs.Receipts; s != nil {
				r.Get("/receipts", listReceiptsHandler(s, logger))
				r.Post("/receipts", createReceiptHandler(s, logger))
				r.Get("/receipts/{receiptId}", getReceiptHandler(s, logger))
				r.Get("/patients/{patientId}/receipts", listPatientReceiptsHandler(s, logger))
			}
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store port.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "eyecare-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func billingMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetBillingSnapshot(vocabulary.Fields()))
	}
}
