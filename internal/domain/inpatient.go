package domain

import "time"

// ============================================================
// In-patient admissions & package billing
// ============================================================

// SubItem is one itemized charge line within a package inclusion.
// Amount is always quantity × rate; it is stored as plain data.
type SubItem struct {
	ItemName string   `json:"itemName"`
	Quantity Quantity `json:"quantity"`
	Rate     Amount   `json:"rate"`
	Amount   Amount   `json:"amount"`
}

// PackageInclusion is a named billing category within a package
// (e.g. "Surgery Charges"). SubItems may total more or less than Amount.
type PackageInclusion struct {
	Name     string    `json:"name"`
	Amount   Amount    `json:"amount"`
	SubItems []SubItem `json:"subItems"`
}

// PaymentRecord is one recorded payment event. Date is a local clinic
// datetime string as entered on the form.
type PaymentRecord struct {
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"`
	AmountType  string `json:"amountType"`
	PaymentMode string `json:"paymentMode"`
	Amount      Amount `json:"amount"`
}

// InPatient is an in-patient admission record, persisted in the in_patients
// table. PackageAmount, NetAmount, TotalReceivedAmount and BalanceAmount are
// derived from the inclusions, discount and payments; they are written into
// the row every time they are computed but never read back as a source of truth.
type InPatient struct {
	ID            string `json:"id,omitempty"`
	PatientID     string `json:"patient_id" validate:"required"`
	PatientName   string `json:"patient_name" validate:"required"`
	Age           int    `json:"age,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	AdmissionDate string `json:"admission_date,omitempty"`
	DischargeDate string `json:"discharge_date,omitempty"`
	RoomNumber    string `json:"room_number,omitempty"`
	Doctor        string `json:"doctor,omitempty"`
	Diagnosis     string `json:"diagnosis,omitempty"`
	Procedure     string `json:"procedure,omitempty"`
	OperatedEye   string `json:"operated_eye,omitempty"` // right, left, both
	Remarks       string `json:"remarks,omitempty"`

	PackageInclusions []PackageInclusion `json:"package_inclusions"`
	PackageAmount     Amount             `json:"package_amount"`
	Discount          Amount             `json:"discount"`
	PaymentRecords    []PaymentRecord    `json:"payment_records"`

	NetAmount           Amount `json:"net_amount"`
	TotalReceivedAmount Amount `json:"total_received_amount"`
	BalanceAmount       Amount `json:"balance_amount"`

	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy, so a submission can finalize its own copy and
// leave the caller's aggregate untouched when persistence fails.
func (p *InPatient) Clone() *InPatient {
	if p == nil {
		return nil
	}
	c := *p
	if p.PackageInclusions != nil {
		c.PackageInclusions = make([]PackageInclusion, len(p.PackageInclusions))
		for i, inc := range p.PackageInclusions {
			c.PackageInclusions[i] = inc
			if inc.SubItems != nil {
				c.PackageInclusions[i].SubItems = append([]SubItem(nil), inc.SubItems...)
			}
		}
	}
	if p.PaymentRecords != nil {
		c.PaymentRecords = append([]PaymentRecord(nil), p.PaymentRecords...)
	}
	return &c
}

// BillingTotals carries the derived amounts of a billing aggregate.
type BillingTotals struct {
	PackageAmount       Amount `json:"packageAmount"`
	NetAmount           Amount `json:"netAmount"`
	TotalReceivedAmount Amount `json:"totalReceivedAmount"`
	BalanceAmount       Amount `json:"balanceAmount"`
}

// InclusionSummary is the per-inclusion breakdown shown next to each row.
type InclusionSummary struct {
	Name            string   `json:"name"`
	Amount          Amount   `json:"amount"`
	SubItemsTotal   Amount   `json:"subItemsTotal"`
	RemainingAmount Amount   `json:"remainingAmount"`
	SubItemAmounts  []Amount `json:"subItemAmounts"`
}

// BillingCalculation is returned by POST /v1/inpatients/calculate.
type BillingCalculation struct {
	BillingTotals
	Inclusions []InclusionSummary `json:"inclusions"`
}

// BillingInput is the body for POST /v1/inpatients/calculate.
type BillingInput struct {
	PackageInclusions []PackageInclusion `json:"packageInclusions"`
	Discount          Amount             `json:"discount"`
	PaymentRecords    []PaymentRecord    `json:"paymentRecords"`
}

// PaymentRequest is the body for POST /v1/inpatients/{inpatientId}/payments.
type PaymentRequest struct {
	Date        string `json:"date"`
	AmountType  string `json:"amountType"`
	PaymentMode string `json:"paymentMode"`
	Amount      Amount `json:"amount"`
}

// AdmissionForm is what the admission screen loads: the record plus the
// vocabularies offered by its free-text fields.
type AdmissionForm struct {
	Record       *InPatient          `json:"record"`
	Vocabularies map[string][]string `json:"vocabularies"`
}
