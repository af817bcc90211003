package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/billing"
	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/eyecare-bfa-go/internal/port"
	"github.com/boddenberg/eyecare-bfa-go/internal/vocabulary"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var inPatientTracer = otel.Tracer("service/inpatient")

// InPatientService runs the in-patient admission form: new admissions,
// billing previews and saving the billing aggregate.
//
// Every save works on a copy of the submitted record. The copy is
// finalized (derived amounts recomputed) and persisted; the caller's record
// is never modified, so a failed save can be retried as is.
type InPatientService struct {
	store   port.InPatientStore
	vocab   *VocabularyService
	metrics *observability.Metrics
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewInPatientService creates the in-patient service. loc is the clinic time
// zone used for default dates; nil means UTC.
func NewInPatientService(store port.InPatientStore, vocab *VocabularyService, metrics *observability.Metrics, loc *time.Location, logger *zap.Logger) *InPatientService {
	if loc == nil {
		loc = time.UTC
	}
	return &InPatientService{
		store:   store,
		vocab:   vocab,
		metrics: metrics,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
}

func (s *InPatientService) clinicNow() time.Time {
	return s.now().In(s.loc)
}

// NewAdmission returns a blank admission form with the default inclusion and
// payment row, plus the vocabularies of its dropdowns.
func (s *InPatientService) NewAdmission(ctx context.Context, user domain.CurrentUser) (*domain.AdmissionForm, error) {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.NewAdmission")
	defer span.End()

	vocabs, err := s.vocab.All(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.AdmissionForm{
		Record:       billing.NewForm(user, s.clinicNow()).Record(),
		Vocabularies: vocabs,
	}, nil
}

// LoadForm fetches an admission and the dropdown vocabularies concurrently.
func (s *InPatientService) LoadForm(ctx context.Context, id string) (*domain.AdmissionForm, error) {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.LoadForm")
	defer span.End()
	span.SetAttributes(attribute.String("inpatient.id", id))

	var (
		rec    *domain.InPatient
		vocabs map[string][]string
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.Get(gCtx, id)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	g.Go(func() error {
		v, err := s.vocab.All(gCtx)
		if err != nil {
			return fmt.Errorf("load vocabularies: %w", err)
		}
		vocabs = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.AdmissionForm{Record: rec, Vocabularies: vocabs}, nil
}

// Calculate previews the derived amounts of a billing aggregate without
// saving anything.
func (s *InPatientService) Calculate(ctx context.Context, in domain.BillingInput) (*domain.BillingCalculation, error) {
	_, span := inPatientTracer.Start(ctx, "InPatientService.Calculate")
	defer span.End()

	calc := billing.Calculate(in)
	if err := billing.CheckTotals(calc.BillingTotals); err != nil {
		return nil, err
	}
	return &calc, nil
}

// Get returns an admission with derived amounts recomputed from its rows.
func (s *InPatientService) Get(ctx context.Context, id string) (*domain.InPatient, error) {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.Get")
	defer span.End()

	rec, err := s.store.GetInPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get inpatient: %w", err)
	}
	billing.Finalize(rec)
	return rec, nil
}

// List returns admissions matching search by patient name or id.
func (s *InPatientService) List(ctx context.Context, search string, limit int) ([]domain.InPatient, error) {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.List")
	defer span.End()

	recs, err := s.store.ListInPatients(ctx, strings.TrimSpace(search), limit)
	if err != nil {
		return nil, fmt.Errorf("list inpatients: %w", err)
	}
	return recs, nil
}

// Delete removes an admission.
func (s *InPatientService) Delete(ctx context.Context, id string) error {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.Delete")
	defer span.End()

	if err := s.store.DeleteInPatient(ctx, id); err != nil {
		return fmt.Errorf("delete inpatient: %w", err)
	}
	s.logger.Info("inpatient deleted", zap.String("inpatient_id", id))
	return nil
}

// Create saves a new admission on behalf of user.
func (s *InPatientService) Create(ctx context.Context, user domain.CurrentUser, rec *domain.InPatient) (*domain.InPatient, error) {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.Create")
	defer span.End()

	return s.save(ctx, user, rec, func(c *domain.InPatient) (*domain.InPatient, error) {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.CreatedBy = user.Username
		return s.store.CreateInPatient(ctx, c)
	})
}

// Update replaces the stored admission id wholesale with rec. The last save
// wins; there is no merge with concurrent edits.
func (s *InPatientService) Update(ctx context.Context, user domain.CurrentUser, id string, rec *domain.InPatient) (*domain.InPatient, error) {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("inpatient.id", id))

	return s.save(ctx, user, rec, func(c *domain.InPatient) (*domain.InPatient, error) {
		c.ID = id
		return s.store.UpdateInPatient(ctx, c)
	})
}

// AddPayment appends a payment row to admission id and saves it. Blank
// type, mode and date take the new-admission defaults.
func (s *InPatientService) AddPayment(ctx context.Context, user domain.CurrentUser, id string, req *domain.PaymentRequest) (*domain.InPatient, error) {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.AddPayment")
	defer span.End()

	rec, err := s.store.GetInPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get inpatient: %w", err)
	}

	p := domain.PaymentRecord{
		Date:        strings.TrimSpace(req.Date),
		AmountType:  strings.TrimSpace(req.AmountType),
		PaymentMode: strings.TrimSpace(req.PaymentMode),
		Amount:      req.Amount,
	}
	if p.Date == "" {
		p.Date = s.clinicNow().Format(billing.PaymentDateLayout)
	}
	if p.AmountType == "" {
		p.AmountType = billing.DefaultAmountType
	}
	if p.PaymentMode == "" {
		p.PaymentMode = billing.DefaultPaymentMode
	}

	form := billing.FormFromRecord(rec)
	form.AddPayment(p)
	return s.Update(ctx, user, id, form.Record())
}

// RemovePayment drops payment paymentID from admission id and saves it.
func (s *InPatientService) RemovePayment(ctx context.Context, user domain.CurrentUser, id, paymentID string) (*domain.InPatient, error) {
	ctx, span := inPatientTracer.Start(ctx, "InPatientService.RemovePayment")
	defer span.End()

	rec, err := s.store.GetInPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get inpatient: %w", err)
	}

	form := billing.FormFromRecord(rec)
	if !form.RemovePaymentByID(paymentID) {
		return nil, &domain.ErrNotFound{Resource: "payment", ID: paymentID}
	}
	return s.Update(ctx, user, id, form.Record())
}

// save is the submission path shared by Create and Update: validate identity,
// canonicalize dropdown values, finalize derived amounts, persist.
func (s *InPatientService) save(ctx context.Context, user domain.CurrentUser, rec *domain.InPatient, persist func(*domain.InPatient) (*domain.InPatient, error)) (*domain.InPatient, error) {
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("inpatient_save", time.Since(start)) }()

	if rec == nil {
		s.metrics.IncrSubmission(observability.SubmissionRejected)
		return nil, &domain.ErrValidation{Field: "body", Message: "required"}
	}
	if err := checkIdentity(rec); err != nil {
		s.metrics.IncrSubmission(observability.SubmissionRejected)
		return nil, err
	}

	c := rec.Clone()
	c.PatientID = strings.TrimSpace(c.PatientID)
	c.PatientName = strings.TrimSpace(c.PatientName)
	c.UpdatedBy = user.Username
	s.canonicalize(ctx, c)
	billing.Finalize(c)
	if err := billing.CheckTotals(totalsOf(c)); err != nil {
		s.metrics.IncrSubmission(observability.SubmissionRejected)
		return nil, err
	}

	saved, err := persist(c)
	if err != nil {
		s.metrics.IncrSubmission(observability.SubmissionFailed)
		s.metrics.IncrExternalError("in_patients")
		s.logger.Error("inpatient save failed",
			zap.String("patient_id", c.PatientID),
			zap.String("staff", user.Username),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save inpatient: %w", err)
	}

	s.metrics.IncrSubmission(observability.SubmissionSaved)
	s.logger.Info("inpatient saved",
		zap.String("inpatient_id", saved.ID),
		zap.String("patient_id", saved.PatientID),
		zap.Float64("balance_amount", float64(c.BalanceAmount)),
	)

	// The stored row may lag behind; answer with the amounts just computed.
	billing.Finalize(saved)
	return saved, nil
}

func totalsOf(rec *domain.InPatient) domain.BillingTotals {
	return domain.BillingTotals{
		PackageAmount:       rec.PackageAmount,
		NetAmount:           rec.NetAmount,
		TotalReceivedAmount: rec.TotalReceivedAmount,
		BalanceAmount:       rec.BalanceAmount,
	}
}

func checkIdentity(rec *domain.InPatient) error {
	if err := validateStruct(rec); err != nil {
		return err
	}
	if err := requireNotBlank("patient_id", rec.PatientID); err != nil {
		return err
	}
	return requireNotBlank("patient_name", rec.PatientName)
}

// canonicalize resolves the dropdown-backed values of rec through the
// vocabularies. When a vocabulary is unavailable the value is kept as typed;
// the billing save is not blocked by it.
func (s *InPatientService) canonicalize(ctx context.Context, rec *domain.InPatient) {
	resolve := func(field, value string) string {
		if strings.TrimSpace(value) == "" {
			return value
		}
		res, err := s.vocab.Commit(ctx, field, value)
		if err != nil {
			var v *domain.ErrValidation
			if !errors.As(err, &v) {
				s.logger.Warn("vocabulary commit failed",
					zap.String("field", field),
					zap.Error(err),
				)
			}
			return value
		}
		return res.Value
	}

	rec.Doctor = resolve(vocabulary.FieldDoctor, rec.Doctor)
	rec.Procedure = resolve(vocabulary.FieldProcedure, rec.Procedure)
	for i := range rec.PackageInclusions {
		rec.PackageInclusions[i].Name = resolve(vocabulary.FieldInclusionName, rec.PackageInclusions[i].Name)
	}
	for i := range rec.PaymentRecords {
		p := &rec.PaymentRecords[i]
		p.AmountType = resolve(vocabulary.FieldAmountType, p.AmountType)
		p.PaymentMode = resolve(vocabulary.FieldPaymentMode, p.PaymentMode)
	}
}
