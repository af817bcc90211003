// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// InPatientStore persists in-patient admission records.
// Update replaces the whole row; there is no partial-field update.
type InPatientStore interface {
	CreateInPatient(ctx context.Context, rec *domain.InPatient) (*domain.InPatient, error)
	UpdateInPatient(ctx context.Context, rec *domain.InPatient) (*domain.InPatient, error)
	GetInPatient(ctx context.Context, id string) (*domain.InPatient, error)
	ListInPatients(ctx context.Context, search string, limit int) ([]domain.InPatient, error)
	DeleteInPatient(ctx context.Context, id string) error
}

// OptionStore persists dynamic vocabulary additions as (field, value) pairs.
type OptionStore interface {
	ListOptions(ctx context.Context, field string) ([]domain.DropdownOption, error)
	AddOption(ctx context.Context, field, value string) (*domain.DropdownOption, error)
}

// PatientStore persists registered patients.
type PatientStore interface {
	CreatePatient(ctx context.Context, p *domain.Patient) (*domain.Patient, error)
	UpdatePatient(ctx context.Context, p *domain.Patient) (*domain.Patient, error)
	GetPatient(ctx context.Context, id string) (*domain.Patient, error)
	GetPatientByRegistration(ctx context.Context, registrationNumber string) (*domain.Patient, error)
	ListPatients(ctx context.Context, search string, limit int) ([]domain.Patient, error)
	DeletePatient(ctx context.Context, id string) error
}

// ClinicalStore persists prescriptions and eye examination readings.
type ClinicalStore interface {
	CreatePrescription(ctx context.Context, p *domain.Prescription) (*domain.Prescription, error)
	ListPrescriptions(ctx context.Context, patientID string) ([]domain.Prescription, error)
	DeletePrescription(ctx context.Context, id string) error
	CreateEyeExamination(ctx context.Context, e *domain.EyeExamination) (*domain.EyeExamination, error)
	ListEyeExaminations(ctx context.Context, patientID string) ([]domain.EyeExamination, error)
}

// ReceiptStore persists OPD billing receipts.
type ReceiptStore interface {
	CreateReceipt(ctx context.Context, r *domain.Receipt) (*domain.Receipt, error)
	GetReceipt(ctx context.Context, id string) (*domain.Receipt, error)
	ListReceipts(ctx context.Context, patientID string) ([]domain.Receipt, error)
}

// StaffStore looks up staff accounts for login.
type StaffStore interface {
	GetStaffByUsername(ctx context.Context, username string) (*domain.StaffUser, error)
}

// HealthChecker pings the record store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
