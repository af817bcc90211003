package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"go.uber.org/zap"
)

func newInPatientService(t *testing.T, store *mockInPatientStore, opts *mockOptionStore) (*service.InPatientService, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics()
	loc := time.FixedZone("IST", 5*60*60+30*60)
	return service.NewInPatientService(store, newVocabService(t, opts), metrics, loc, zap.NewNop()), metrics
}

func sampleAdmission() *domain.InPatient {
	return &domain.InPatient{
		PatientID:   "P-1001",
		PatientName: "Lakshmi Devi",
		PackageInclusions: []domain.PackageInclusion{
			{Name: "Surgery Charges", Amount: 50000},
		},
		Discount: 5000,
		PaymentRecords: []domain.PaymentRecord{
			{Date: "2024-03-01T10:00", AmountType: "Advance", PaymentMode: "Cash", Amount: 20000},
			{Date: "2024-03-02T10:00", AmountType: "Insurance", PaymentMode: "UPI", Amount: 10000},
		},
		// stale values from the client must be overridden
		PackageAmount: 1,
		NetAmount:     2,
		BalanceAmount: 3,
	}
}

func TestCreate_FinalizesDerivedFields(t *testing.T) {
	store := newMockInPatientStore()
	svc, _ := newInPatientService(t, store, &mockOptionStore{})

	saved, err := svc.Create(context.Background(), staffUser, sampleAdmission())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(store.saved))
	}
	got := store.saved[0]
	if got.PackageAmount != 50000 || got.NetAmount != 45000 || got.TotalReceivedAmount != 30000 || got.BalanceAmount != 15000 {
		t.Errorf("unexpected persisted totals: package=%v net=%v received=%v balance=%v",
			got.PackageAmount, got.NetAmount, got.TotalReceivedAmount, got.BalanceAmount)
	}
	if got.ID == "" {
		t.Error("expected generated id")
	}
	if got.CreatedBy != "reception" || got.UpdatedBy != "reception" {
		t.Errorf("expected staff attribution, got created_by=%q updated_by=%q", got.CreatedBy, got.UpdatedBy)
	}
	if saved.BalanceAmount != 15000 {
		t.Errorf("expected returned balance 15000, got %v", saved.BalanceAmount)
	}
}

func TestCreate_Overpayment(t *testing.T) {
	store := newMockInPatientStore()
	svc, _ := newInPatientService(t, store, &mockOptionStore{})

	rec := sampleAdmission()
	rec.PaymentRecords = append(rec.PaymentRecords, domain.PaymentRecord{AmountType: "Final Payment", PaymentMode: "Card", Amount: 20000})

	saved, err := svc.Create(context.Background(), staffUser, rec)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if saved.BalanceAmount != -5000 {
		t.Errorf("expected balance -5000, got %v", saved.BalanceAmount)
	}
}

func TestCreate_RejectsMissingIdentity(t *testing.T) {
	store := newMockInPatientStore()
	svc, metrics := newInPatientService(t, store, &mockOptionStore{})

	for _, tc := range []struct {
		name  string
		mut   func(*domain.InPatient)
		field string
	}{
		{"no patient name", func(r *domain.InPatient) { r.PatientName = "" }, "patient_name"},
		{"blank patient name", func(r *domain.InPatient) { r.PatientName = "   " }, "patient_name"},
		{"no patient id", func(r *domain.InPatient) { r.PatientID = "" }, "patient_id"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := sampleAdmission()
			tc.mut(rec)

			_, err := svc.Create(context.Background(), staffUser, rec)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, verr.Field)
			}
		})
	}

	if len(store.saved) != 0 {
		t.Errorf("expected nothing persisted, got %d", len(store.saved))
	}
	if snap := metrics.GetBillingSnapshot(nil); snap.RejectedSubmissions != 3 {
		t.Errorf("expected 3 rejected submissions, got %d", snap.RejectedSubmissions)
	}
}

func TestCreate_PersistenceFailureLeavesRecordUntouched(t *testing.T) {
	store := newMockInPatientStore()
	store.saveErr = &domain.ErrExternalService{Service: "supabase/in_patients", Err: errors.New("connection refused")}
	svc, metrics := newInPatientService(t, store, &mockOptionStore{})

	rec := sampleAdmission()
	before := rec.Clone()

	_, err := svc.Create(context.Background(), staffUser, rec)
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}

	if rec.ID != before.ID || rec.PackageAmount != before.PackageAmount || rec.BalanceAmount != before.BalanceAmount || rec.CreatedBy != before.CreatedBy {
		t.Errorf("caller's record was modified: %+v", rec)
	}
	if snap := metrics.GetBillingSnapshot(nil); snap.FailedSubmissions != 1 {
		t.Errorf("expected 1 failed submission, got %d", snap.FailedSubmissions)
	}
}

func TestCreate_RecomputesSubItemAmounts(t *testing.T) {
	store := newMockInPatientStore()
	svc, _ := newInPatientService(t, store, &mockOptionStore{})

	rec := sampleAdmission()
	rec.PackageInclusions[0].SubItems = []domain.SubItem{
		{ItemName: "IOL", Quantity: 2, Rate: 150, Amount: 999},
	}

	if _, err := svc.Create(context.Background(), staffUser, rec); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := store.saved[0].PackageInclusions[0].SubItems[0].Amount; got != 300 {
		t.Errorf("expected sub-item amount 300, got %v", got)
	}
	if rec.PackageInclusions[0].SubItems[0].Amount != 999 {
		t.Error("caller's sub-item was modified")
	}
}

func TestCreate_CanonicalizesDropdownValues(t *testing.T) {
	store := newMockInPatientStore()
	opts := &mockOptionStore{}
	svc, _ := newInPatientService(t, store, opts)

	rec := sampleAdmission()
	rec.PaymentRecords[0].PaymentMode = "cash"
	rec.PaymentRecords[1].PaymentMode = "neft"
	rec.Doctor = "dr. mehta"

	if _, err := svc.Create(context.Background(), staffUser, rec); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got := store.saved[0]
	if got.PaymentRecords[0].PaymentMode != "Cash" {
		t.Errorf("expected canonical Cash, got %q", got.PaymentRecords[0].PaymentMode)
	}
	if got.PaymentRecords[1].PaymentMode != "NEFT" {
		t.Errorf("expected new value upper-cased, got %q", got.PaymentRecords[1].PaymentMode)
	}
	if got.Doctor != "DR. MEHTA" {
		t.Errorf("expected DR. MEHTA, got %q", got.Doctor)
	}
	if modes := opts.values("payment_mode"); len(modes) != 1 || modes[0] != "NEFT" {
		t.Errorf("expected NEFT stored, got %v", modes)
	}
}

func TestCreate_VocabularyOutageDoesNotBlockSave(t *testing.T) {
	store := newMockInPatientStore()
	opts := &mockOptionStore{listErr: errors.New("timeout")}
	svc, _ := newInPatientService(t, store, opts)

	rec := sampleAdmission()
	rec.PaymentRecords[0].PaymentMode = "cash"

	if _, err := svc.Create(context.Background(), staffUser, rec); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := store.saved[0].PaymentRecords[0].PaymentMode; got != "cash" {
		t.Errorf("expected value kept as typed, got %q", got)
	}
}

func TestUpdate_ReplacesWholesale(t *testing.T) {
	store := newMockInPatientStore()
	svc, _ := newInPatientService(t, store, &mockOptionStore{})

	created, err := svc.Create(context.Background(), staffUser, sampleAdmission())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edit := created.Clone()
	edit.PaymentRecords = edit.PaymentRecords[:1]
	edit.Remarks = "discharged"

	updated, err := svc.Update(context.Background(), domain.CurrentUser{Username: "billing2"}, created.ID, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalReceivedAmount != 20000 || updated.BalanceAmount != 25000 {
		t.Errorf("unexpected totals after update: received=%v balance=%v", updated.TotalReceivedAmount, updated.BalanceAmount)
	}
	if updated.UpdatedBy != "billing2" || updated.Remarks != "discharged" {
		t.Errorf("unexpected update: %+v", updated)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newInPatientService(t, newMockInPatientStore(), &mockOptionStore{})

	_, err := svc.Update(context.Background(), staffUser, "missing", sampleAdmission())
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddAndRemovePayment(t *testing.T) {
	store := newMockInPatientStore()
	svc, _ := newInPatientService(t, store, &mockOptionStore{})

	created, err := svc.Create(context.Background(), staffUser, sampleAdmission())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	withPayment, err := svc.AddPayment(context.Background(), staffUser, created.ID, &domain.PaymentRequest{Amount: 15000})
	if err != nil {
		t.Fatalf("add payment: %v", err)
	}
	if withPayment.BalanceAmount != 0 {
		t.Errorf("expected balance 0, got %v", withPayment.BalanceAmount)
	}
	last := withPayment.PaymentRecords[len(withPayment.PaymentRecords)-1]
	if last.AmountType != "Advance" || last.PaymentMode != "Cash" || last.Date == "" || last.ID == "" {
		t.Errorf("expected defaults on new payment, got %+v", last)
	}

	removed, err := svc.RemovePayment(context.Background(), staffUser, created.ID, last.ID)
	if err != nil {
		t.Fatalf("remove payment: %v", err)
	}
	if removed.BalanceAmount != 15000 || len(removed.PaymentRecords) != 2 {
		t.Errorf("unexpected record after removal: balance=%v payments=%d", removed.BalanceAmount, len(removed.PaymentRecords))
	}

	_, err = svc.RemovePayment(context.Background(), staffUser, created.ID, "nope")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound for unknown payment, got %v", err)
	}
}

func TestNewAdmission_Defaults(t *testing.T) {
	svc, _ := newInPatientService(t, newMockInPatientStore(), &mockOptionStore{})

	form, err := svc.NewAdmission(context.Background(), staffUser)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	rec := form.Record
	if len(rec.PackageInclusions) != 1 || rec.PackageInclusions[0].Name != "Surgery Charges" || rec.PackageInclusions[0].Amount != 0 {
		t.Errorf("unexpected default inclusions: %+v", rec.PackageInclusions)
	}
	if len(rec.PaymentRecords) != 1 || rec.PaymentRecords[0].Amount != 0 {
		t.Errorf("unexpected default payments: %+v", rec.PaymentRecords)
	}
	if rec.PackageAmount != 0 || rec.BalanceAmount != 0 {
		t.Errorf("expected zero totals, got %v/%v", rec.PackageAmount, rec.BalanceAmount)
	}
	if rec.CreatedBy != "reception" {
		t.Errorf("expected created_by reception, got %q", rec.CreatedBy)
	}
	if len(form.Vocabularies["payment_mode"]) == 0 {
		t.Error("expected payment_mode vocabulary")
	}
}

func TestLoadForm(t *testing.T) {
	store := newMockInPatientStore()
	opts := &mockOptionStore{options: []domain.DropdownOption{{FieldName: "doctor", OptionValue: "DR. RAO"}}}
	svc, _ := newInPatientService(t, store, opts)

	created, err := svc.Create(context.Background(), staffUser, sampleAdmission())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	form, err := svc.LoadForm(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if form.Record.ID != created.ID {
		t.Errorf("expected record %s, got %s", created.ID, form.Record.ID)
	}
	if doctors := form.Vocabularies["doctor"]; len(doctors) != 1 || doctors[0] != "DR. RAO" {
		t.Errorf("unexpected doctor vocabulary: %v", doctors)
	}

	_, err = svc.LoadForm(context.Background(), "missing")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCalculate(t *testing.T) {
	svc, _ := newInPatientService(t, newMockInPatientStore(), &mockOptionStore{})

	calc, err := svc.Calculate(context.Background(), domain.BillingInput{
		PackageInclusions: []domain.PackageInclusion{{
			Name:   "Surgery Charges",
			Amount: 500,
			SubItems: []domain.SubItem{
				{ItemName: "Lens", Quantity: 2, Rate: 150},
				{ItemName: "Drops", Quantity: 1, Rate: 100},
			},
		}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if calc.PackageAmount != 500 || calc.BalanceAmount != 500 {
		t.Errorf("unexpected totals: %+v", calc.BillingTotals)
	}
	if len(calc.Inclusions) != 1 || calc.Inclusions[0].SubItemsTotal != 400 || calc.Inclusions[0].RemainingAmount != 100 {
		t.Errorf("unexpected inclusion summary: %+v", calc.Inclusions)
	}
}

func TestCalculate_RejectsOverflowingTotals(t *testing.T) {
	svc, _ := newInPatientService(t, newMockInPatientStore(), &mockOptionStore{})

	_, err := svc.Calculate(context.Background(), domain.BillingInput{
		PackageInclusions: []domain.PackageInclusion{
			{Name: "Surgery Charges", Amount: 1e308},
			{Name: "Room Charges", Amount: 1e308},
		},
	})

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreate_RejectsOverflowingTotals(t *testing.T) {
	store := newMockInPatientStore()
	svc, _ := newInPatientService(t, store, &mockOptionStore{})

	rec := sampleAdmission()
	rec.PackageInclusions = []domain.PackageInclusion{
		{Name: "Surgery Charges", Amount: 1e308},
		{Name: "Room Charges", Amount: 1e308},
	}

	_, err := svc.Create(context.Background(), staffUser, rec)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Errorf("expected nothing persisted, got %d saves", len(store.saved))
	}
}
