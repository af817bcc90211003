// Package supabase provides a client for Supabase (PostgREST).
// It is the record store for patients, admissions, clinical records,
// receipts, staff accounts and the dynamic dropdown vocabulary.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bulkhead:       resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:            cfg,
		logger:         logger,
	}
}

// statusError is a non-2xx answer from PostgREST.
type statusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// rejected reports whether err is an answer about the request itself rather
// than a sign the store is unavailable. Such errors are neither retried nor
// counted by the circuit breaker.
func rejected(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Status >= 400 && se.Status < 500 && se.Status != http.StatusTooManyRequests
	}
	var nf *domain.ErrNotFound
	var conflict *domain.ErrConflict
	return errors.As(err, &nf) || errors.As(err, &conflict)
}

// call runs fn behind the bulkhead, retry and circuit breaker and maps the
// outcome to domain errors. service names the table for error messages.
func (c *Client) call(ctx context.Context, service string, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: "supabase/" + service}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		err := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			err := fn()
			if rejected(err) {
				return resilience.Permanent(err)
			}
			return err
		})
		if rejected(err) {
			return nil, resilience.Permanent(err)
		}
		return nil, err
	})
	return mapError(service, err)
}

func mapError(service string, err error) error {
	if err == nil {
		return nil
	}
	if resilience.IsOpen(err) {
		return &domain.ErrCircuitOpen{Service: "supabase/" + service}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: "supabase/" + service}
	}

	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nf
	}
	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		return conflict
	}
	var se *statusError
	if errors.As(err, &se) && se.Status == http.StatusConflict {
		return &domain.ErrConflict{Message: fmt.Sprintf("%s: duplicate record", service)}
	}
	return &domain.ErrExternalService{Service: "supabase/" + service, Err: err}
}

// Ping checks that PostgREST answers (implements port.HealthChecker).
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodGet, "dropdown_options?select=id&limit=1")
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	return nil
}
