package billing

import (
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"

	"github.com/google/uuid"
)

const (
	// DefaultInclusionName is the inclusion every new admission starts with.
	DefaultInclusionName = "Surgery Charges"
	// DefaultAmountType and DefaultPaymentMode prefill the first payment row.
	DefaultAmountType  = "Advance"
	DefaultPaymentMode = "Cash"
	// PaymentDateLayout is the local datetime format of payment dates.
	PaymentDateLayout = "2006-01-02T15:04"
)

// Form is the editable billing aggregate of one admission form.
//
// Every mutator recomputes the derived totals before it returns, so callers
// always observe consistent values. The package amount has no setter; it is
// always the sum of the inclusions. Row indexes out of range are ignored.
// A Form is not safe for concurrent use.
type Form struct {
	rec *domain.InPatient
}

// NewForm starts a blank admission with one "Surgery Charges" inclusion at 0
// and one payment row at 0 dated now. now should already be in the clinic
// time zone.
func NewForm(user domain.CurrentUser, now time.Time) *Form {
	f := &Form{rec: &domain.InPatient{
		AdmissionDate: now.Format("2006-01-02"),
		PackageInclusions: []domain.PackageInclusion{
			{Name: DefaultInclusionName, Amount: 0, SubItems: []domain.SubItem{}},
		},
		PaymentRecords: []domain.PaymentRecord{
			{
				ID:          uuid.New().String(),
				Date:        now.Format(PaymentDateLayout),
				AmountType:  DefaultAmountType,
				PaymentMode: DefaultPaymentMode,
				Amount:      0,
			},
		},
		CreatedBy: user.Username,
	}}
	f.recompute()
	return f
}

// FormFromRecord opens an existing record for editing. Derived fields loaded
// with the record are discarded and recomputed.
func FormFromRecord(rec *domain.InPatient) *Form {
	c := rec.Clone()
	if c == nil {
		c = &domain.InPatient{}
	}
	c.PackageInclusions = NormalizeSubItems(c.PackageInclusions)
	c.PaymentRecords = NormalizePayments(c.PaymentRecords)
	f := &Form{rec: c}
	f.recompute()
	return f
}

// Record returns a copy of the aggregate with up-to-date derived fields.
func (f *Form) Record() *domain.InPatient {
	return f.rec.Clone()
}

// Totals returns the current derived amounts.
func (f *Form) Totals() domain.BillingTotals {
	return domain.BillingTotals{
		PackageAmount:       f.rec.PackageAmount,
		NetAmount:           f.rec.NetAmount,
		TotalReceivedAmount: f.rec.TotalReceivedAmount,
		BalanceAmount:       f.rec.BalanceAmount,
	}
}

// PackageAmount is the sum of all inclusion amounts.
func (f *Form) PackageAmount() domain.Amount { return f.rec.PackageAmount }

// Discount returns the discount as last set.
func (f *Form) Discount() domain.Amount { return f.rec.Discount }

// Inclusions returns the number of inclusion rows.
func (f *Form) Inclusions() int { return len(f.rec.PackageInclusions) }

// Payments returns the number of payment rows.
func (f *Form) Payments() int { return len(f.rec.PaymentRecords) }

// InclusionRemaining returns the unallocated amount of inclusion i.
func (f *Form) InclusionRemaining(i int) domain.Amount {
	if !f.validInclusion(i) {
		return 0
	}
	return InclusionRemaining(f.rec.PackageInclusions[i])
}

// SubItemAmount returns the derived amount of sub-item j of inclusion i.
func (f *Form) SubItemAmount(i, j int) domain.Amount {
	if !f.validSubItem(i, j) {
		return 0
	}
	return f.rec.PackageInclusions[i].SubItems[j].Amount
}

// --- inclusions ---

// AddInclusion appends an inclusion row and returns its index.
func (f *Form) AddInclusion(name string, amount domain.Amount) int {
	f.rec.PackageInclusions = append(f.rec.PackageInclusions, domain.PackageInclusion{
		Name:     name,
		Amount:   amount,
		SubItems: []domain.SubItem{},
	})
	f.recompute()
	return len(f.rec.PackageInclusions) - 1
}

// RemoveInclusion drops inclusion i together with its sub-items.
func (f *Form) RemoveInclusion(i int) {
	if !f.validInclusion(i) {
		return
	}
	incs := f.rec.PackageInclusions
	f.rec.PackageInclusions = append(incs[:i:i], incs[i+1:]...)
	f.recompute()
}

// SetInclusionName renames inclusion i.
func (f *Form) SetInclusionName(i int, name string) {
	if !f.validInclusion(i) {
		return
	}
	f.rec.PackageInclusions[i].Name = name
}

// SetInclusionAmount sets the amount of inclusion i from raw input.
func (f *Form) SetInclusionAmount(i int, raw string) {
	if !f.validInclusion(i) {
		return
	}
	f.rec.PackageInclusions[i].Amount = domain.ParseAmount(raw)
	f.recompute()
}

// --- sub-items ---

// AddSubItem appends an empty sub-item to inclusion i and returns its index,
// or -1 when i is out of range.
func (f *Form) AddSubItem(i int) int {
	if !f.validInclusion(i) {
		return -1
	}
	inc := &f.rec.PackageInclusions[i]
	inc.SubItems = append(inc.SubItems, domain.SubItem{})
	f.recompute()
	return len(inc.SubItems) - 1
}

// RemoveSubItem drops sub-item j of inclusion i.
func (f *Form) RemoveSubItem(i, j int) {
	if !f.validSubItem(i, j) {
		return
	}
	inc := &f.rec.PackageInclusions[i]
	inc.SubItems = append(inc.SubItems[:j:j], inc.SubItems[j+1:]...)
	f.recompute()
}

// SetSubItemName renames sub-item j of inclusion i.
func (f *Form) SetSubItemName(i, j int, name string) {
	if !f.validSubItem(i, j) {
		return
	}
	f.rec.PackageInclusions[i].SubItems[j].ItemName = name
}

// SetSubItemQuantity sets the quantity of sub-item j from raw input and
// rederives its amount.
func (f *Form) SetSubItemQuantity(i, j int, raw string) {
	if !f.validSubItem(i, j) {
		return
	}
	it := &f.rec.PackageInclusions[i].SubItems[j]
	it.Quantity = domain.ParseQuantity(raw)
	it.Amount = SubItemAmount(it.Quantity, it.Rate)
	f.recompute()
}

// SetSubItemRate sets the rate of sub-item j from raw input and rederives
// its amount.
func (f *Form) SetSubItemRate(i, j int, raw string) {
	if !f.validSubItem(i, j) {
		return
	}
	it := &f.rec.PackageInclusions[i].SubItems[j]
	it.Rate = domain.ParseAmount(raw)
	if it.Rate < 0 {
		it.Rate = 0
	}
	it.Amount = SubItemAmount(it.Quantity, it.Rate)
	f.recompute()
}

// --- discount ---

// SetDiscount sets the discount from raw input. It is not checked against
// the package amount; a discount above it yields a negative net amount.
func (f *Form) SetDiscount(raw string) {
	f.rec.Discount = domain.ParseAmount(raw)
	f.recompute()
}

// --- payments ---

// AddPayment appends a payment row and returns its index. A missing ID is
// generated and a negative amount counts as 0.
func (f *Form) AddPayment(p domain.PaymentRecord) int {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Amount < 0 {
		p.Amount = 0
	}
	f.rec.PaymentRecords = append(f.rec.PaymentRecords, p)
	f.recompute()
	return len(f.rec.PaymentRecords) - 1
}

// RemovePayment drops payment row k.
func (f *Form) RemovePayment(k int) {
	if !f.validPayment(k) {
		return
	}
	ps := f.rec.PaymentRecords
	f.rec.PaymentRecords = append(ps[:k:k], ps[k+1:]...)
	f.recompute()
}

// RemovePaymentByID drops the payment with the given ID and reports whether
// one was found.
func (f *Form) RemovePaymentByID(id string) bool {
	for k, p := range f.rec.PaymentRecords {
		if p.ID == id {
			f.RemovePayment(k)
			return true
		}
	}
	return false
}

// SetPaymentAmount sets the amount of payment row k from raw input.
// Negative input counts as 0.
func (f *Form) SetPaymentAmount(k int, raw string) {
	if !f.validPayment(k) {
		return
	}
	amount := domain.ParseAmount(raw)
	if amount < 0 {
		amount = 0
	}
	f.rec.PaymentRecords[k].Amount = amount
	f.recompute()
}

// SetPaymentType sets the amount type (Advance, Insurance, ...) of row k.
func (f *Form) SetPaymentType(k int, amountType string) {
	if !f.validPayment(k) {
		return
	}
	f.rec.PaymentRecords[k].AmountType = amountType
}

// SetPaymentMode sets the payment mode (Cash, UPI, ...) of row k.
func (f *Form) SetPaymentMode(k int, mode string) {
	if !f.validPayment(k) {
		return
	}
	f.rec.PaymentRecords[k].PaymentMode = mode
}

// SetPaymentDate sets the date of row k as entered.
func (f *Form) SetPaymentDate(k int, date string) {
	if !f.validPayment(k) {
		return
	}
	f.rec.PaymentRecords[k].Date = date
}

func (f *Form) recompute() {
	apply(f.rec, Recompute(f.rec.PackageInclusions, f.rec.Discount, f.rec.PaymentRecords))
}

func (f *Form) validInclusion(i int) bool {
	return i >= 0 && i < len(f.rec.PackageInclusions)
}

func (f *Form) validSubItem(i, j int) bool {
	return f.validInclusion(i) && j >= 0 && j < len(f.rec.PackageInclusions[i].SubItems)
}

func (f *Form) validPayment(k int) bool {
	return k >= 0 && k < len(f.rec.PaymentRecords)
}
