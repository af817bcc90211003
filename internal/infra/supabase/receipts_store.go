package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// OPD receipts: implements port.ReceiptStore
// ============================================================

const receiptsTable = "receipts"

func (c *Client) CreateReceipt(ctx context.Context, r *domain.Receipt) (*domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateReceipt")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", r.PatientID))

	row := map[string]any{
		"patient_id":   r.PatientID,
		"patient_name": r.PatientName,
		"items":        r.Items,
		"total_amount": r.TotalAmount,
		"discount":     r.Discount,
		"net_amount":   r.NetAmount,
		"payment_mode": r.PaymentMode,
		"created_by":   r.CreatedBy,
	}

	var created *domain.Receipt
	err := c.call(ctx, receiptsTable, func() error {
		body, err := c.doPost(ctx, receiptsTable, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Receipt](body, receiptsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result from %s insert", receiptsTable)
		}
		created = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) GetReceipt(ctx context.Context, id string) (*domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetReceipt")
	defer span.End()
	span.SetAttributes(attribute.String("receipt.id", id))

	var rec *domain.Receipt
	err := c.call(ctx, receiptsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("%s?%s&limit=1", receiptsTable, eq("id", id)))
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Receipt](body, receiptsTable)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "receipt", ID: id}
		}
		rec = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListReceipts returns receipts newest first; an empty patientID lists all.
func (c *Client) ListReceipts(ctx context.Context, patientID string) ([]domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListReceipts")
	defer span.End()

	path := fmt.Sprintf("%s?order=created_at.desc&limit=%d", receiptsTable, limitOrDefault(0))
	if patientID != "" {
		path += "&" + eq("patient_id", patientID)
	}

	var rows []domain.Receipt
	err := c.call(ctx, receiptsTable, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err = decodeRows[domain.Receipt](body, receiptsTable)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
