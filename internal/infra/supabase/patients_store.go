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
// Patients: implements port.PatientStore
// ============================================================

const patientsTable = "patients"

func patientRow(p *domain.Patient) map[string]any {
	return map[string]any{
		"registration_number": p.RegistrationNumber,
		"name":                p.Name,
		"age":                 p.Age,
		"gender":              p.Gender,
		"phone":               p.Phone,
		"address":             p.Address,
		"created_by":          p.CreatedBy,
	}
}

func (c *Client) CreatePatient(ctx context.Context, p *domain.Patient) (*domain.Patient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePatient")
	defer span.End()
	span.SetAttributes(attribute.String("patient.registration", p.RegistrationNumber))

	row := patientRow(p)
	if p.ID != "" {
		row["id"] = p.ID
	}

	var created *domain.Patient
	err := c.call(ctx, patientsTable, func() error {
		body, err := c.doPost(ctx, patientsTable, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Patient](body, patientsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result from %s insert", patientsTable)
		}
		created = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) UpdatePatient(ctx context.Context, p *domain.Patient) (*domain.Patient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePatient")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", p.ID))

	row := patientRow(p)
	delete(row, "created_by")
	row["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	var updated *domain.Patient
	err := c.call(ctx, patientsTable, func() error {
		body, err := c.doPatch(ctx, fmt.Sprintf("%s?%s", patientsTable, eq("id", p.ID)), row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Patient](body, patientsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "patient", ID: p.ID}
		}
		updated = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Client) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPatient")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", id))

	return c.getPatientBy(ctx, "id", id)
}

func (c *Client) GetPatientByRegistration(ctx context.Context, registrationNumber string) (*domain.Patient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPatientByRegistration")
	defer span.End()
	span.SetAttributes(attribute.String("patient.registration", registrationNumber))

	return c.getPatientBy(ctx, "registration_number", registrationNumber)
}

func (c *Client) getPatientBy(ctx context.Context, column, value string) (*domain.Patient, error) {
	var p *domain.Patient
	err := c.call(ctx, patientsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("%s?%s&limit=1", patientsTable, eq(column, value)))
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Patient](body, patientsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "patient", ID: value}
		}
		p = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPatients searches by name or registration number, newest first.
func (c *Client) ListPatients(ctx context.Context, search string, limit int) ([]domain.Patient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPatients")
	defer span.End()

	path := fmt.Sprintf("%s?order=created_at.desc&limit=%d", patientsTable, limitOrDefault(limit))
	if search != "" {
		path += "&" + ilikeAny(search, "name", "registration_number")
	}

	var rows []domain.Patient
	err := c.call(ctx, patientsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err = decodeRows[domain.Patient](body, patientsTable)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) DeletePatient(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePatient")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", id))

	return c.call(ctx, patientsTable, func() error {
		return c.doDelete(ctx, fmt.Sprintf("%s?%s", patientsTable, eq("id", id)))
	})
}
