package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/eyecare-bfa-go/internal/port"
	"github.com/boddenberg/eyecare-bfa-go/internal/vocabulary"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var vocabTracer = otel.Tracer("service/vocabulary")

// VocabularyService serves the editable dropdowns: built-in defaults merged
// with the options staff added over time.
type VocabularyService struct {
	store   port.OptionStore
	cache   port.Cache[[]string]
	metrics *observability.Metrics
	logger  *zap.Logger

	mu sync.Mutex // serializes Commit so a value is stored once per process
}

// NewVocabularyService creates the vocabulary service.
func NewVocabularyService(store port.OptionStore, cache port.Cache[[]string], metrics *observability.Metrics, logger *zap.Logger) *VocabularyService {
	return &VocabularyService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

func cacheKey(field string) string {
	return "vocabulary:" + field
}

func checkField(field string) error {
	if !vocabulary.Known(field) {
		return &domain.ErrValidation{Field: "field", Message: fmt.Sprintf("unknown vocabulary %q", field)}
	}
	return nil
}

// Options returns the options of field: defaults first, then stored
// additions, without case-insensitive duplicates.
func (s *VocabularyService) Options(ctx context.Context, field string) ([]string, error) {
	v, err := s.load(ctx, field)
	if err != nil {
		return nil, err
	}
	return v.Options(), nil
}

// All loads every vocabulary concurrently, keyed by field.
func (s *VocabularyService) All(ctx context.Context) (map[string][]string, error) {
	fields := vocabulary.Fields()
	results := make([][]string, len(fields))

	g, gCtx := errgroup.WithContext(ctx)
	for i, f := range fields {
		i, f := i, f
		g.Go(func() error {
			opts, err := s.Options(gCtx, f)
			if err != nil {
				return err
			}
			results[i] = opts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(fields))
	for i, f := range fields {
		out[f] = results[i]
	}
	return out, nil
}

// Suggest returns the options of field containing input, case-insensitively.
func (s *VocabularyService) Suggest(ctx context.Context, field, input string) ([]string, error) {
	v, err := s.load(ctx, field)
	if err != nil {
		return nil, err
	}
	return v.Suggest(input), nil
}

// Commit resolves free text entered in field. Existing options come back in
// their stored casing; new text is upper-cased and stored. Blank input
// resolves to "" and stores nothing.
func (s *VocabularyService) Commit(ctx context.Context, field, input string) (*domain.VocabularyResolution, error) {
	ctx, span := vocabTracer.Start(ctx, "VocabularyService.Commit")
	defer span.End()
	span.SetAttributes(attribute.String("vocabulary.field", field))

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load(ctx, field)
	if err != nil {
		return nil, err
	}

	r := v.Resolve(input)
	res := &domain.VocabularyResolution{Field: field, Value: r.Value, IsNew: r.IsNew}
	if !r.IsNew {
		return res, nil
	}

	start := time.Now()
	_, err = s.store.AddOption(ctx, field, r.Value)
	s.metrics.RecordRequestDuration("vocabulary_add", time.Since(start))
	if err != nil {
		s.metrics.IncrExternalError("dropdown_options")
		s.logger.Error("failed to store vocabulary option",
			zap.String("field", field),
			zap.String("value", r.Value),
			zap.Error(err),
		)
		return nil, fmt.Errorf("store option: %w", err)
	}

	s.cache.Delete(cacheKey(field))
	s.metrics.IncrVocabularyAddition(field)
	s.logger.Info("vocabulary option added",
		zap.String("field", field),
		zap.String("value", r.Value),
	)

	res.Added = true
	return res, nil
}

func (s *VocabularyService) load(ctx context.Context, field string) (*vocabulary.Vocabulary, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}

	key := cacheKey(field)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("vocabulary")
		return vocabulary.New(field, cached), nil
	}
	s.metrics.IncrCacheMiss("vocabulary")

	ctx, span := vocabTracer.Start(ctx, "VocabularyService.load")
	defer span.End()

	stored, err := s.store.ListOptions(ctx, field)
	if err != nil {
		s.metrics.IncrExternalError("dropdown_options")
		return nil, fmt.Errorf("list options: %w", err)
	}

	values := make([]string, 0, len(stored))
	for _, o := range stored {
		values = append(values, o.OptionValue)
	}

	v := vocabulary.New(field, vocabulary.Defaults(field), values)
	s.cache.Set(key, v.Options())
	return v, nil
}
