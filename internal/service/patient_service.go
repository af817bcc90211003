package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var patientTracer = otel.Tracer("service/patient")

// PatientService manages patient registration.
type PatientService struct {
	store  port.PatientStore
	logger *zap.Logger
}

// NewPatientService creates the patient service.
func NewPatientService(store port.PatientStore, logger *zap.Logger) *PatientService {
	return &PatientService{store: store, logger: logger}
}

func normalizePatient(p *domain.Patient) {
	p.RegistrationNumber = strings.TrimSpace(p.RegistrationNumber)
	p.Name = strings.TrimSpace(p.Name)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	p.Phone = strings.TrimSpace(p.Phone)
}

// Create registers a patient. Registration numbers are unique.
func (s *PatientService) Create(ctx context.Context, user domain.CurrentUser, p *domain.Patient) (*domain.Patient, error) {
	ctx, span := patientTracer.Start(ctx, "PatientService.Create")
	defer span.End()

	c := *p
	normalizePatient(&c)
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("patient.registration", c.RegistrationNumber))

	existing, err := s.store.GetPatientByRegistration(ctx, c.RegistrationNumber)
	var notFound *domain.ErrNotFound
	switch {
	case err == nil && existing != nil:
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("registration number %s already exists", c.RegistrationNumber)}
	case err != nil && !errors.As(err, &notFound):
		return nil, fmt.Errorf("check registration: %w", err)
	}

	c.ID = ""
	c.CreatedBy = user.Username
	created, err := s.store.CreatePatient(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.logger.Info("patient registered",
		zap.String("patient_id", created.ID),
		zap.String("registration_number", created.RegistrationNumber),
		zap.String("staff", user.Username),
	)
	return created, nil
}

// Update replaces the details of patient id.
func (s *PatientService) Update(ctx context.Context, id string, p *domain.Patient) (*domain.Patient, error) {
	ctx, span := patientTracer.Start(ctx, "PatientService.Update")
	defer span.End()

	c := *p
	normalizePatient(&c)
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	c.ID = id

	updated, err := s.store.UpdatePatient(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return updated, nil
}

// Get returns one patient.
func (s *PatientService) Get(ctx context.Context, id string) (*domain.Patient, error) {
	ctx, span := patientTracer.Start(ctx, "PatientService.Get")
	defer span.End()

	p, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

// List searches patients by name or registration number.
func (s *PatientService) List(ctx context.Context, search string, limit int) ([]domain.Patient, error) {
	ctx, span := patientTracer.Start(ctx, "PatientService.List")
	defer span.End()

	ps, err := s.store.ListPatients(ctx, strings.TrimSpace(search), limit)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return ps, nil
}

// Delete removes a patient.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	ctx, span := patientTracer.Start(ctx, "PatientService.Delete")
	defer span.End()

	if err := s.store.DeletePatient(ctx, id); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}
