package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Prescriptions & eye readings: implements port.ClinicalStore
// ============================================================

const (
	prescriptionsTable = "prescriptions"
	eyeReadingsTable   = "eye_readings"
)

// --- Prescriptions ---

func (c *Client) CreatePrescription(ctx context.Context, p *domain.Prescription) (*domain.Prescription, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePrescription")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", p.PatientID))

	row := map[string]any{
		"patient_id": p.PatientID,
		"doctor":     p.Doctor,
		"medicines":  p.Medicines,
		"notes":      p.Notes,
		"created_by": p.CreatedBy,
	}

	var created *domain.Prescription
	err := c.call(ctx, prescriptionsTable, func() error {
		body, err := c.doPost(ctx, prescriptionsTable, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Prescription](body, prescriptionsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result from %s insert", prescriptionsTable)
		}
		created = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) ListPrescriptions(ctx context.Context, patientID string) ([]domain.Prescription, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPrescriptions")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", patientID))

	path := fmt.Sprintf("%s?%s&order=created_at.desc", prescriptionsTable, eq("patient_id", patientID))

	var rows []domain.Prescription
	err := c.call(ctx, prescriptionsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err = decodeRows[domain.Prescription](body, prescriptionsTable)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) DeletePrescription(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePrescription")
	defer span.End()

	return c.call(ctx, prescriptionsTable, func() error {
		return c.doDelete(ctx, fmt.Sprintf("%s?%s", prescriptionsTable, eq("id", id)))
	})
}

// --- Eye readings ---

func (c *Client) CreateEyeExamination(ctx context.Context, e *domain.EyeExamination) (*domain.EyeExamination, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateEyeExamination")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", e.PatientID))

	row := map[string]any{
		"patient_id": e.PatientID,
		"right_eye":  e.RightEye,
		"left_eye":   e.LeftEye,
		"examiner":   e.Examiner,
		"notes":      e.Notes,
		"created_by": e.CreatedBy,
	}
	if e.ExaminedAt != nil {
		row["examined_at"] = e.ExaminedAt
	}

	var created *domain.EyeExamination
	err := c.call(ctx, eyeReadingsTable, func() error {
		body, err := c.doPost(ctx, eyeReadingsTable, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.EyeExamination](body, eyeReadingsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result from %s insert", eyeReadingsTable)
		}
		created = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) ListEyeExaminations(ctx context.Context, patientID string) ([]domain.EyeExamination, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEyeExaminations")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", patientID))

	path := fmt.Sprintf("%s?%s&order=examined_at.desc", eyeReadingsTable, eq("patient_id", patientID))

	var rows []domain.EyeExamination
	err := c.call(ctx, eyeReadingsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err = decodeRows[domain.EyeExamination](body, eyeReadingsTable)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
