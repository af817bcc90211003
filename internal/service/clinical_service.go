package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/port"
	"github.com/boddenberg/eyecare-bfa-go/internal/vocabulary"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var clinicalTracer = otel.Tracer("service/clinical")

// ClinicalService records prescriptions and eye examination readings.
type ClinicalService struct {
	store  port.ClinicalStore
	vocab  *VocabularyService
	logger *zap.Logger
	now    func() time.Time
}

// NewClinicalService creates the clinical records service.
func NewClinicalService(store port.ClinicalStore, vocab *VocabularyService, logger *zap.Logger) *ClinicalService {
	return &ClinicalService{store: store, vocab: vocab, logger: logger, now: time.Now}
}

// --- Prescriptions ---

// CreatePrescription stores a prescription written by user. The doctor name
// is resolved through the doctor vocabulary.
func (s *ClinicalService) CreatePrescription(ctx context.Context, user domain.CurrentUser, p *domain.Prescription) (*domain.Prescription, error) {
	ctx, span := clinicalTracer.Start(ctx, "ClinicalService.CreatePrescription")
	defer span.End()

	c := *p
	c.Medicines = append([]domain.PrescribedMedicine(nil), p.Medicines...)
	c.PatientID = strings.TrimSpace(c.PatientID)
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	if err := requireNotBlank("patient_id", c.PatientID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(c.Doctor) != "" {
		res, err := s.vocab.Commit(ctx, vocabulary.FieldDoctor, c.Doctor)
		if err != nil {
			return nil, err
		}
		c.Doctor = res.Value
	}
	c.CreatedBy = user.Username

	created, err := s.store.CreatePrescription(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	s.logger.Info("prescription recorded",
		zap.String("patient_id", c.PatientID),
		zap.Int("medicines", len(c.Medicines)),
	)
	return created, nil
}

// ListPrescriptions returns a patient's prescriptions, newest first.
func (s *ClinicalService) ListPrescriptions(ctx context.Context, patientID string) ([]domain.Prescription, error) {
	ctx, span := clinicalTracer.Start(ctx, "ClinicalService.ListPrescriptions")
	defer span.End()

	if err := requireNotBlank("patient_id", patientID); err != nil {
		return nil, err
	}
	ps, err := s.store.ListPrescriptions(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	return ps, nil
}

// DeletePrescription removes a prescription.
func (s *ClinicalService) DeletePrescription(ctx context.Context, id string) error {
	ctx, span := clinicalTracer.Start(ctx, "ClinicalService.DeletePrescription")
	defer span.End()

	if err := s.store.DeletePrescription(ctx, id); err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	return nil
}

// --- Eye readings ---

// RecordEyeExamination stores one set of readings. At least one eye must
// carry a value; the examination time defaults to now.
func (s *ClinicalService) RecordEyeExamination(ctx context.Context, user domain.CurrentUser, e *domain.EyeExamination) (*domain.EyeExamination, error) {
	ctx, span := clinicalTracer.Start(ctx, "ClinicalService.RecordEyeExamination")
	defer span.End()

	c := *e
	c.PatientID = strings.TrimSpace(c.PatientID)
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	if err := requireNotBlank("patient_id", c.PatientID); err != nil {
		return nil, err
	}
	if c.RightEye == (domain.EyeReading{}) && c.LeftEye == (domain.EyeReading{}) {
		return nil, &domain.ErrValidation{Field: "right_eye", Message: "at least one eye reading is required"}
	}
	if c.ExaminedAt == nil {
		now := s.now().UTC()
		c.ExaminedAt = &now
	}
	if c.Examiner == "" {
		c.Examiner = user.Name
	}
	c.CreatedBy = user.Username

	created, err := s.store.CreateEyeExamination(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("record eye examination: %w", err)
	}
	return created, nil
}

// ListEyeExaminations returns a patient's readings, newest first.
func (s *ClinicalService) ListEyeExaminations(ctx context.Context, patientID string) ([]domain.EyeExamination, error) {
	ctx, span := clinicalTracer.Start(ctx, "ClinicalService.ListEyeExaminations")
	defer span.End()

	if err := requireNotBlank("patient_id", patientID); err != nil {
		return nil, err
	}
	es, err := s.store.ListEyeExaminations(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list eye examinations: %w", err)
	}
	return es, nil
}
