package integration_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/handler"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/cache"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// fakePostgREST is a minimal in-memory PostgREST: eq. filters on GET, PATCH
// and DELETE, inserts on POST. Tables listed in down answer 503.
type fakePostgREST struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
	down   map[string]bool
	nextID int
}

func newFakePostgREST(t *testing.T) *fakePostgREST {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("eyecare"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return &fakePostgREST{
		tables: map[string][]map[string]any{
			"staff_users": {{
				"id": "staff-1", "username": "reception", "name": "Front Desk",
				"role": "billing", "password_hash": string(hash), "active": true,
			}},
		},
		down: map[string]bool{},
	}
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	if f.down[table] {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"upstream unavailable"}`))
		return
	}

	filters := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 && strings.HasPrefix(v[0], "eq.") {
			filters[k] = strings.TrimPrefix(v[0], "eq.")
		}
	}
	match := func(row map[string]any) bool {
		for k, v := range filters {
			if fmt.Sprint(row[k]) != v {
				return false
			}
		}
		return true
	}

	switch r.Method {
	case http.MethodGet:
		out := []map[string]any{}
		for _, row := range f.tables[table] {
			if match(row) {
				out = append(out, row)
			}
		}
		writeRows(w, http.StatusOK, out)

	case http.MethodPost:
		var row map[string]any
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, ok := row["id"]; !ok {
			f.nextID++
			row["id"] = fmt.Sprintf("%s-%d", table, f.nextID)
		}
		row["created_at"] = time.Now().UTC().Format(time.RFC3339)
		f.tables[table] = append(f.tables[table], row)
		writeRows(w, http.StatusCreated, []map[string]any{row})

	case http.MethodPatch:
		var patch map[string]any
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &patch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		out := []map[string]any{}
		for _, row := range f.tables[table] {
			if match(row) {
				for k, v := range patch {
					row[k] = v
				}
				out = append(out, row)
			}
		}
		writeRows(w, http.StatusOK, out)

	case http.MethodDelete:
		kept := f.tables[table][:0]
		for _, row := range f.tables[table] {
			if !match(row) {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakePostgREST) rows(table string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.tables[table]...)
}

func writeRows(w http.ResponseWriter, status int, rows []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rows)
}

// --- Wiring ---

func newAPI(t *testing.T, fake *fakePostgREST) http.Handler {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("integration", logger)
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 5 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, srv.URL, "anon", "service-role", cb, cfg, logger)

	optionCache := cache.New[[]string](time.Minute)
	t.Cleanup(optionCache.Stop)

	vocab := service.NewVocabularyService(store, optionCache, metrics, logger)
	clinic, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		clinic = time.UTC
	}

	svcs := handler.Services{
		InPatients: service.NewInPatientService(store, vocab, metrics, clinic, logger),
		Vocabulary: vocab,
		Patients:   service.NewPatientService(store, logger),
		Clinical:   service.NewClinicalService(store, vocab, logger),
		Receipts:   service.NewReceiptService(store, vocab, logger),
		Auth:       service.NewAuthService(store, "integration-secret", time.Hour, logger),
		Store:      store,
	}
	return handler.NewRouter(svcs, 0, metrics, logger)
}

func call(t *testing.T, h http.Handler, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: failed to decode response (%d): %v. Body: %s", method, path, rec.Code, err, rec.Body.String())
		}
	}
	return rec.Code
}

func loginAs(t *testing.T, h http.Handler) string {
	t.Helper()
	var resp domain.LoginResponse
	code := call(t, h, http.MethodPost, "/v1/auth/login", "", domain.LoginRequest{Username: "reception", Password: "eyecare"}, &resp)
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", code)
	}
	return resp.AccessToken
}

// TestIntegration_AdmissionFlow drives an admission through login, save,
// payment and reload against a fake PostgREST.
func TestIntegration_AdmissionFlow(t *testing.T) {
	fake := newFakePostgREST(t)
	api := newAPI(t, fake)
	token := loginAs(t, api)

	// --- Blank admission template ---
	var form domain.AdmissionForm
	if code := call(t, api, http.MethodGet, "/v1/inpatients/new", token, nil, &form); code != http.StatusOK {
		t.Fatalf("new admission: expected 200, got %d", code)
	}
	rec := form.Record
	if rec == nil || len(rec.PaymentRecords) != 1 {
		t.Fatalf("unexpected template: %+v", rec)
	}

	// --- Fill it in and save ---
	rec.PatientID = "REG-2024-001"
	rec.PatientName = "Lakshmi Iyer"
	rec.Doctor = "dr. nair"
	rec.PackageInclusions[0].Amount = 40000
	rec.PackageInclusions[0].SubItems = []domain.SubItem{{ItemName: "Toric IOL", Quantity: 1, Rate: 18000}}
	rec.PackageInclusions = append(rec.PackageInclusions, domain.PackageInclusion{Name: "room charges", Amount: 6000})
	rec.Discount = 4000
	rec.PaymentRecords[0].Amount = 20000
	rec.PaymentRecords[0].PaymentMode = "gpay"

	var saved domain.SaveResult[domain.InPatient]
	if code := call(t, api, http.MethodPost, "/v1/inpatients", token, rec, &saved); code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %+v", code, saved)
	}
	if !saved.Success || saved.Data == nil {
		t.Fatalf("expected success, got %+v", saved)
	}
	ip := saved.Data
	if ip.PackageAmount != 46000 || ip.NetAmount != 42000 || ip.BalanceAmount != 22000 {
		t.Errorf("unexpected totals: package=%v net=%v balance=%v", ip.PackageAmount, ip.NetAmount, ip.BalanceAmount)
	}
	if ip.Doctor != "DR. NAIR" {
		t.Errorf("expected new doctor upper-cased, got %q", ip.Doctor)
	}
	if ip.PackageInclusions[1].Name != "Room Charges" {
		t.Errorf("expected canonical 'Room Charges', got %q", ip.PackageInclusions[1].Name)
	}
	if ip.PaymentRecords[0].PaymentMode != "GPAY" {
		t.Errorf("expected new payment mode 'GPAY', got %q", ip.PaymentRecords[0].PaymentMode)
	}

	// --- Record the final payment ---
	var paid domain.SaveResult[domain.InPatient]
	payment := domain.PaymentRequest{AmountType: "final payment", Amount: 22000}
	if code := call(t, api, http.MethodPost, "/v1/inpatients/"+ip.ID+"/payments", token, payment, &paid); code != http.StatusCreated {
		t.Fatalf("add payment: expected 201, got %d: %+v", code, paid)
	}
	if paid.Data.BalanceAmount != 0 || paid.Data.TotalReceivedAmount != 42000 {
		t.Errorf("expected settled account, got received=%v balance=%v", paid.Data.TotalReceivedAmount, paid.Data.BalanceAmount)
	}
	last := paid.Data.PaymentRecords[len(paid.Data.PaymentRecords)-1]
	if last.AmountType != "Final Payment" || last.PaymentMode != "Cash" || last.Date == "" {
		t.Errorf("unexpected payment row: %+v", last)
	}

	// --- Reload the form ---
	var reloaded domain.AdmissionForm
	if code := call(t, api, http.MethodGet, "/v1/inpatients/"+ip.ID+"/form", token, nil, &reloaded); code != http.StatusOK {
		t.Fatalf("load form: expected 200, got %d", code)
	}
	if reloaded.Record.BalanceAmount != 0 || len(reloaded.Record.PaymentRecords) != 2 {
		t.Errorf("unexpected reloaded record: %+v", reloaded.Record)
	}
	if !contains(reloaded.Vocabularies["payment_mode"], "GPAY") {
		t.Errorf("expected GPAY among payment modes, got %v", reloaded.Vocabularies["payment_mode"])
	}
	if !contains(reloaded.Vocabularies["doctor"], "DR. NAIR") {
		t.Errorf("expected DR. NAIR among doctors, got %v", reloaded.Vocabularies["doctor"])
	}

	// --- Stored rows ---
	rows := fake.rows("in_patients")
	if len(rows) != 1 {
		t.Fatalf("expected 1 stored admission, got %d", len(rows))
	}
	if rows[0]["created_by"] != "reception" || rows[0]["updated_by"] != "reception" {
		t.Errorf("expected staff attribution on row, got created_by=%v updated_by=%v", rows[0]["created_by"], rows[0]["updated_by"])
	}
	if got := len(fake.rows("dropdown_options")); got != 2 {
		t.Errorf("expected 2 vocabulary additions, got %d", got)
	}
}

// TestIntegration_StoreDown checks that a failing admissions table yields a
// failed save envelope while vocabulary additions made on the way survive.
func TestIntegration_StoreDown(t *testing.T) {
	fake := newFakePostgREST(t)
	fake.down["in_patients"] = true
	api := newAPI(t, fake)
	token := loginAs(t, api)

	rec := domain.InPatient{
		PatientID:         "REG-9",
		PatientName:       "Arjun",
		PackageInclusions: []domain.PackageInclusion{{Name: "Laser Charges", Amount: 8000}},
	}

	var res domain.SaveResult[domain.InPatient]
	code := call(t, api, http.MethodPost, "/v1/inpatients", token, rec, &res)
	if code != http.StatusBadGateway && code != http.StatusServiceUnavailable {
		t.Fatalf("expected 502 or 503, got %d", code)
	}
	if res.Success || res.Message == "" {
		t.Errorf("expected failed envelope with message, got %+v", res)
	}
	if len(fake.rows("in_patients")) != 0 {
		t.Error("expected no stored admission")
	}
	opts := fake.rows("dropdown_options")
	if len(opts) != 1 || opts[0]["option_value"] != "LASER CHARGES" {
		t.Errorf("expected LASER CHARGES to be stored, got %v", opts)
	}
}

// TestIntegration_PatientRegistration covers patient registration and the
// clinical records hanging off it.
func TestIntegration_PatientRegistration(t *testing.T) {
	fake := newFakePostgREST(t)
	api := newAPI(t, fake)
	token := loginAs(t, api)

	var created domain.SaveResult[domain.Patient]
	patient := domain.Patient{RegistrationNumber: "OPD-77", Name: "Meera Das", Age: 64, Gender: "female"}
	if code := call(t, api, http.MethodPost, "/v1/patients", token, patient, &created); code != http.StatusCreated {
		t.Fatalf("create patient: expected 201, got %d: %+v", code, created)
	}

	var dup domain.SaveResult[domain.Patient]
	if code := call(t, api, http.MethodPost, "/v1/patients", token, patient, &dup); code != http.StatusConflict {
		t.Errorf("duplicate registration: expected 409, got %d", code)
	}

	id := created.Data.ID
	exam := domain.EyeExamination{RightEye: domain.EyeReading{Sphere: "-1.25", VisualAcuity: "6/9"}}
	var examRes domain.SaveResult[domain.EyeExamination]
	if code := call(t, api, http.MethodPost, "/v1/patients/"+id+"/eye-readings", token, exam, &examRes); code != http.StatusCreated {
		t.Fatalf("eye reading: expected 201, got %d: %+v", code, examRes)
	}
	if examRes.Data.PatientID != id {
		t.Errorf("expected reading for %s, got %s", id, examRes.Data.PatientID)
	}

	receipt := domain.Receipt{
		PatientID:   id,
		PatientName: "Meera Das",
		Items:       []domain.ReceiptItem{{Description: "Consultation", Quantity: 1, Rate: 500}, {Description: "OCT", Quantity: 2, Rate: 1200}},
		Discount:    400,
	}
	var receiptRes domain.SaveResult[domain.Receipt]
	if code := call(t, api, http.MethodPost, "/v1/receipts", token, receipt, &receiptRes); code != http.StatusCreated {
		t.Fatalf("receipt: expected 201, got %d: %+v", code, receiptRes)
	}
	if receiptRes.Data.TotalAmount != 2900 || receiptRes.Data.NetAmount != 2500 {
		t.Errorf("unexpected receipt totals: total=%v net=%v", receiptRes.Data.TotalAmount, receiptRes.Data.NetAmount)
	}
	if receiptRes.Data.PaymentMode != "Cash" {
		t.Errorf("expected default payment mode Cash, got %q", receiptRes.Data.PaymentMode)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
