package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/cache"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockInPatientStore struct {
	mu      sync.Mutex
	records map[string]*domain.InPatient
	saveErr error
	saved   []*domain.InPatient
}

func newMockInPatientStore() *mockInPatientStore {
	return &mockInPatientStore{records: make(map[string]*domain.InPatient)}
}

func (m *mockInPatientStore) CreateInPatient(_ context.Context, rec *domain.InPatient) (*domain.InPatient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = append(m.saved, rec.Clone())
	m.records[rec.ID] = rec.Clone()
	return rec.Clone(), nil
}

func (m *mockInPatientStore) UpdateInPatient(_ context.Context, rec *domain.InPatient) (*domain.InPatient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if _, ok := m.records[rec.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "inpatient", ID: rec.ID}
	}
	m.saved = append(m.saved, rec.Clone())
	m.records[rec.ID] = rec.Clone()
	return rec.Clone(), nil
}

func (m *mockInPatientStore) GetInPatient(_ context.Context, id string) (*domain.InPatient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "inpatient", ID: id}
	}
	return rec.Clone(), nil
}

func (m *mockInPatientStore) ListInPatients(_ context.Context, search string, _ int) ([]domain.InPatient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.InPatient{}
	for _, r := range m.records {
		if search == "" || strings.Contains(strings.ToLower(r.PatientName), strings.ToLower(search)) {
			out = append(out, *r.Clone())
		}
	}
	return out, nil
}

func (m *mockInPatientStore) DeleteInPatient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

type mockOptionStore struct {
	mu       sync.Mutex
	options  []domain.DropdownOption
	listErr  error
	addErr   error
	addCalls int
	lists    int
}

func (m *mockOptionStore) ListOptions(_ context.Context, field string) ([]domain.DropdownOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.DropdownOption
	for _, o := range m.options {
		if o.FieldName == field {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOptionStore) AddOption(_ context.Context, field, value string) (*domain.DropdownOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.addErr != nil {
		return nil, m.addErr
	}
	o := domain.DropdownOption{ID: uuid.New().String(), FieldName: field, OptionValue: value}
	m.options = append(m.options, o)
	return &o, nil
}

func (m *mockOptionStore) values(field string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, o := range m.options {
		if o.FieldName == field {
			out = append(out, o.OptionValue)
		}
	}
	return out
}

type mockPatientStore struct {
	patients map[string]*domain.Patient
	err      error
}

func newMockPatientStore() *mockPatientStore {
	return &mockPatientStore{patients: make(map[string]*domain.Patient)}
}

func (m *mockPatientStore) CreatePatient(_ context.Context, p *domain.Patient) (*domain.Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	c := *p
	c.ID = uuid.New().String()
	m.patients[c.ID] = &c
	return &c, nil
}

func (m *mockPatientStore) UpdatePatient(_ context.Context, p *domain.Patient) (*domain.Patient, error) {
	if _, ok := m.patients[p.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "patient", ID: p.ID}
	}
	c := *p
	m.patients[p.ID] = &c
	return &c, nil
}

func (m *mockPatientStore) GetPatient(_ context.Context, id string) (*domain.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "patient", ID: id}
	}
	return p, nil
}

func (m *mockPatientStore) GetPatientByRegistration(_ context.Context, reg string) (*domain.Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.patients {
		if p.RegistrationNumber == reg {
			return p, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "patient", ID: reg}
}

func (m *mockPatientStore) ListPatients(_ context.Context, _ string, _ int) ([]domain.Patient, error) {
	out := []domain.Patient{}
	for _, p := range m.patients {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPatientStore) DeletePatient(_ context.Context, id string) error {
	delete(m.patients, id)
	return nil
}

type mockClinicalStore struct {
	prescriptions []domain.Prescription
	exams         []domain.EyeExamination
}

func (m *mockClinicalStore) CreatePrescription(_ context.Context, p *domain.Prescription) (*domain.Prescription, error) {
	c := *p
	c.ID = uuid.New().String()
	m.prescriptions = append(m.prescriptions, c)
	return &c, nil
}

func (m *mockClinicalStore) ListPrescriptions(_ context.Context, patientID string) ([]domain.Prescription, error) {
	out := []domain.Prescription{}
	for _, p := range m.prescriptions {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockClinicalStore) DeletePrescription(_ context.Context, _ string) error { return nil }

func (m *mockClinicalStore) CreateEyeExamination(_ context.Context, e *domain.EyeExamination) (*domain.EyeExamination, error) {
	c := *e
	c.ID = uuid.New().String()
	m.exams = append(m.exams, c)
	return &c, nil
}

func (m *mockClinicalStore) ListEyeExaminations(_ context.Context, _ string) ([]domain.EyeExamination, error) {
	return m.exams, nil
}

type mockReceiptStore struct {
	receipts []domain.Receipt
}

func (m *mockReceiptStore) CreateReceipt(_ context.Context, r *domain.Receipt) (*domain.Receipt, error) {
	c := *r
	c.ID = uuid.New().String()
	m.receipts = append(m.receipts, c)
	return &c, nil
}

func (m *mockReceiptStore) GetReceipt(_ context.Context, id string) (*domain.Receipt, error) {
	for _, r := range m.receipts {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "receipt", ID: id}
}

func (m *mockReceiptStore) ListReceipts(_ context.Context, _ string) ([]domain.Receipt, error) {
	return m.receipts, nil
}

type mockStaffStore struct {
	staff *domain.StaffUser
	err   error
}

func (m *mockStaffStore) GetStaffByUsername(_ context.Context, username string) (*domain.StaffUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.staff == nil || m.staff.Username != username {
		return nil, nil
	}
	return m.staff, nil
}

// --- Fixtures ---

var staffUser = domain.CurrentUser{ID: "staff-1", Username: "reception", Name: "Front Desk", Role: "billing"}

func newVocabService(t *testing.T, store *mockOptionStore) *service.VocabularyService {
	t.Helper()
	c := cache.New[[]string](5 * time.Minute)
	t.Cleanup(c.Stop)
	return service.NewVocabularyService(store, c, observability.NewMetrics(), zap.NewNop())
}
