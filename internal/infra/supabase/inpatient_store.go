package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// In-patient admissions: implements port.InPatientStore
// ============================================================

const inPatientsTable = "in_patients"

// inPatientRow is the complete column set written on insert and update.
// Updates send every column but created_by, so the last save wins wholesale.
func inPatientRow(rec *domain.InPatient) map[string]any {
	inclusions := rec.PackageInclusions
	if inclusions == nil {
		inclusions = []domain.PackageInclusion{}
	}
	payments := rec.PaymentRecords
	if payments == nil {
		payments = []domain.PaymentRecord{}
	}
	return map[string]any{
		"patient_id":            rec.PatientID,
		"patient_name":          rec.PatientName,
		"age":                   rec.Age,
		"gender":                rec.Gender,
		"phone":                 rec.Phone,
		"address":               rec.Address,
		"admission_date":        rec.AdmissionDate,
		"discharge_date":        rec.DischargeDate,
		"room_number":           rec.RoomNumber,
		"doctor":                rec.Doctor,
		"diagnosis":             rec.Diagnosis,
		"procedure":             rec.Procedure,
		"operated_eye":          rec.OperatedEye,
		"remarks":               rec.Remarks,
		"package_inclusions":    inclusions,
		"package_amount":        rec.PackageAmount,
		"discount":              rec.Discount,
		"payment_records":       payments,
		"net_amount":            rec.NetAmount,
		"total_received_amount": rec.TotalReceivedAmount,
		"balance_amount":        rec.BalanceAmount,
		"created_by":            rec.CreatedBy,
		"updated_by":            rec.UpdatedBy,
	}
}

func (c *Client) CreateInPatient(ctx context.Context, rec *domain.InPatient) (*domain.InPatient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInPatient")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", rec.PatientID))

	row := inPatientRow(rec)
	if rec.ID != "" {
		row["id"] = rec.ID
	}

	var created *domain.InPatient
	err := c.call(ctx, inPatientsTable, func() error {
		body, err := c.doPost(ctx, inPatientsTable, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.InPatient](body, inPatientsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result from %s insert", inPatientsTable)
		}
		created = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) UpdateInPatient(ctx context.Context, rec *domain.InPatient) (*domain.InPatient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateInPatient")
	defer span.End()
	span.SetAttributes(attribute.String("inpatient.id", rec.ID))

	row := inPatientRow(rec)
	delete(row, "created_by")
	row["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	var updated *domain.InPatient
	err := c.call(ctx, inPatientsTable, func() error {
		body, err := c.doPatch(ctx, fmt.Sprintf("%s?%s", inPatientsTable, eq("id", rec.ID)), row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.InPatient](body, inPatientsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "inpatient", ID: rec.ID}
		}
		updated = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Client) GetInPatient(ctx context.Context, id string) (*domain.InPatient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInPatient")
	defer span.End()
	span.SetAttributes(attribute.String("inpatient.id", id))

	var rec *domain.InPatient
	err := c.call(ctx, inPatientsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("%s?%s&limit=1", inPatientsTable, eq("id", id)))
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.InPatient](body, inPatientsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "inpatient", ID: id}
		}
		rec = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListInPatients returns the newest admissions first, optionally filtered by
// a case-insensitive match on patient name or patient id.
func (c *Client) ListInPatients(ctx context.Context, search string, limit int) ([]domain.InPatient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInPatients")
	defer span.End()

	path := fmt.Sprintf("%s?order=created_at.desc&limit=%d", inPatientsTable, limitOrDefault(limit))
	if search != "" {
		path += "&" + ilikeAny(search, "patient_name", "patient_id")
	}

	var rows []domain.InPatient
	err := c.call(ctx, inPatientsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err = decodeRows[domain.InPatient](body, inPatientsTable)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) DeleteInPatient(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteInPatient")
	defer span.End()
	span.SetAttributes(attribute.String("inpatient.id", id))

	return c.call(ctx, inPatientsTable, func() error {
		return c.doDelete(ctx, fmt.Sprintf("%s?%s", inPatientsTable, eq("id", id)))
	})
}
