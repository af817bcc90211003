package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// BillingMetrics is returned by GET /v1/metrics/billing.
type BillingMetrics struct {
	Submissions         int64   `json:"submissions"`
	FailedSubmissions   int64   `json:"failedSubmissions"`
	RejectedSubmissions int64   `json:"rejectedSubmissions"`
	FailureRate         float64 `json:"failureRate"`
	VocabularyAdditions int64   `json:"vocabularyAdditions"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// SaveResult is the envelope returned by every save endpoint. On failure Data
// is omitted and Message carries the reason shown to the user.
type SaveResult[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}
