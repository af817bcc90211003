package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Dropdown vocabulary: implements port.OptionStore
// ============================================================

const optionsTable = "dropdown_options"

// ListOptions returns the stored additions of one field in insertion order.
func (c *Client) ListOptions(ctx context.Context, field string) ([]domain.DropdownOption, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOptions")
	defer span.End()
	span.SetAttributes(attribute.String("vocabulary.field", field))

	path := fmt.Sprintf("%s?select=id,field_name,option_value&%s&order=created_at.asc", optionsTable, eq("field_name", field))

	var rows []domain.DropdownOption
	err := c.call(ctx, optionsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err = decodeRows[domain.DropdownOption](body, optionsTable)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) AddOption(ctx context.Context, field, value string) (*domain.DropdownOption, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AddOption")
	defer span.End()
	span.SetAttributes(attribute.String("vocabulary.field", field))

	row := map[string]any{
		"field_name":   field,
		"option_value": value,
	}

	var created *domain.DropdownOption
	err := c.call(ctx, optionsTable, func() error {
		body, err := c.doPost(ctx, optionsTable, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.DropdownOption](body, optionsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result from %s insert", optionsTable)
		}
		created = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
