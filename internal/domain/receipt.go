package domain

import "time"

// ============================================================
// OPD billing receipts
// ============================================================

// ReceiptItem is one itemized line of a receipt; Amount = quantity × rate.
type ReceiptItem struct {
	Description string   `json:"description" validate:"required"`
	Quantity    Quantity `json:"quantity"`
	Rate        Amount   `json:"rate"`
	Amount      Amount   `json:"amount"`
}

// Receipt is a billing receipt issued to a patient (receipts table).
type Receipt struct {
	ID          string        `json:"id,omitempty"`
	PatientID   string        `json:"patient_id" validate:"required"`
	PatientName string        `json:"patient_name" validate:"required"`
	Items       []ReceiptItem `json:"items" validate:"required,min=1,dive"`
	TotalAmount Amount        `json:"total_amount"`
	Discount    Amount        `json:"discount"`
	NetAmount   Amount        `json:"net_amount"`
	PaymentMode string        `json:"payment_mode,omitempty"`
	CreatedBy   string        `json:"created_by,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}
