package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/eyecare-bfa-go/internal/billing"
	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/port"
	"github.com/boddenberg/eyecare-bfa-go/internal/vocabulary"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var receiptTracer = otel.Tracer("service/receipt")

// ReceiptService issues OPD billing receipts.
type ReceiptService struct {
	store  port.ReceiptStore
	vocab  *VocabularyService
	logger *zap.Logger
}

// NewReceiptService creates the receipt service.
func NewReceiptService(store port.ReceiptStore, vocab *VocabularyService, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{store: store, vocab: vocab, logger: logger}
}

// Totals fills in line amounts (quantity × rate), the total and the net
// amount (total − discount, no floor) of r.
func Totals(r *domain.Receipt) {
	var total domain.Amount
	for i := range r.Items {
		it := &r.Items[i]
		it.Amount = billing.SubItemAmount(it.Quantity, it.Rate)
		total += it.Amount
	}
	r.TotalAmount = total
	r.NetAmount = billing.NetAmount(total, r.Discount)
}

// Create computes and stores a receipt issued by user. A blank payment mode
// means cash. When the vocabulary is unavailable the mode is kept as typed.
func (s *ReceiptService) Create(ctx context.Context, user domain.CurrentUser, r *domain.Receipt) (*domain.Receipt, error) {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.Create")
	defer span.End()

	c := *r
	c.Items = append([]domain.ReceiptItem(nil), r.Items...)
	c.PatientID = strings.TrimSpace(c.PatientID)
	c.PatientName = strings.TrimSpace(c.PatientName)
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	if err := requireNotBlank("patient_name", c.PatientName); err != nil {
		return nil, err
	}

	mode := c.PaymentMode
	if strings.TrimSpace(mode) == "" {
		mode = billing.DefaultPaymentMode
	}
	c.PaymentMode = strings.TrimSpace(mode)
	if res, err := s.vocab.Commit(ctx, vocabulary.FieldPaymentMode, mode); err != nil {
		s.logger.Warn("vocabulary commit failed, keeping payment mode as typed",
			zap.String("field", vocabulary.FieldPaymentMode),
			zap.Error(err),
		)
	} else {
		c.PaymentMode = res.Value
	}
	c.CreatedBy = user.Username
	Totals(&c)
	span.SetAttributes(attribute.Float64("receipt.net_amount", float64(c.NetAmount)))

	created, err := s.store.CreateReceipt(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("create receipt: %w", err)
	}
	s.logger.Info("receipt issued",
		zap.String("receipt_id", created.ID),
		zap.String("patient_id", c.PatientID),
		zap.Float64("net_amount", float64(c.NetAmount)),
	)
	return created, nil
}

// Get returns one receipt.
func (s *ReceiptService) Get(ctx context.Context, id string) (*domain.Receipt, error) {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.Get")
	defer span.End()

	r, err := s.store.GetReceipt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return r, nil
}

// List returns receipts, optionally of one patient.
func (s *ReceiptService) List(ctx context.Context, patientID string) ([]domain.Receipt, error) {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.List")
	defer span.End()

	rs, err := s.store.ListReceipts(ctx, strings.TrimSpace(patientID))
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return rs, nil
}
