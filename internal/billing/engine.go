// Package billing derives the amounts of an in-patient package bill:
// sub-item amounts, per-inclusion remaining amounts, package total, net
// amount, total received and outstanding balance.
//
// The functions here are pure. They never mutate their arguments, except
// Finalize, whose whole job is to write derived fields into a record.
package billing

import "github.com/boddenberg/eyecare-bfa-go/internal/domain"

// SubItemAmount returns quantity × rate. Negative operands count as 0.
func SubItemAmount(quantity domain.Quantity, rate domain.Amount) domain.Amount {
	if quantity < 0 {
		quantity = 0
	}
	if rate < 0 {
		rate = 0
	}
	return domain.Amount(quantity) * rate
}

// SubItemsTotal sums the stored amounts of the given sub-items.
func SubItemsTotal(items []domain.SubItem) domain.Amount {
	var total domain.Amount
	for _, it := range items {
		total += it.Amount
	}
	return total
}

// InclusionRemaining is the inclusion amount not yet itemized by its
// sub-items. Negative when the sub-items are over-allocated.
func InclusionRemaining(inc domain.PackageInclusion) domain.Amount {
	return inc.Amount - SubItemsTotal(inc.SubItems)
}

// PackageTotal sums the inclusion amounts.
func PackageTotal(inclusions []domain.PackageInclusion) domain.Amount {
	var total domain.Amount
	for _, inc := range inclusions {
		total += inc.Amount
	}
	return total
}

// TotalReceived sums the payment amounts.
func TotalReceived(payments []domain.PaymentRecord) domain.Amount {
	var total domain.Amount
	for _, p := range payments {
		total += p.Amount
	}
	return total
}

// NetAmount is packageAmount − discount, not floored at zero.
func NetAmount(packageAmount, discount domain.Amount) domain.Amount {
	return packageAmount - discount
}

// BalanceAmount is the net amount minus everything received. A negative
// balance means the patient overpaid and is returned as is.
func BalanceAmount(packageAmount, discount domain.Amount, payments []domain.PaymentRecord) domain.Amount {
	return NetAmount(packageAmount, discount) - TotalReceived(payments)
}

// Recompute derives all totals in order: package amount, net amount,
// total received, balance.
func Recompute(inclusions []domain.PackageInclusion, discount domain.Amount, payments []domain.PaymentRecord) domain.BillingTotals {
	var t domain.BillingTotals
	t.PackageAmount = PackageTotal(inclusions)
	t.NetAmount = NetAmount(t.PackageAmount, discount)
	t.TotalReceivedAmount = TotalReceived(payments)
	t.BalanceAmount = t.NetAmount - t.TotalReceivedAmount
	return t
}

// NormalizeSubItems returns a copy of the inclusions with every sub-item
// amount recomputed from its quantity and rate.
func NormalizeSubItems(inclusions []domain.PackageInclusion) []domain.PackageInclusion {
	if inclusions == nil {
		return nil
	}
	out := make([]domain.PackageInclusion, len(inclusions))
	for i, inc := range inclusions {
		out[i] = inc
		if inc.SubItems == nil {
			continue
		}
		items := make([]domain.SubItem, len(inc.SubItems))
		for j, it := range inc.SubItems {
			it.Amount = SubItemAmount(it.Quantity, it.Rate)
			items[j] = it
		}
		out[i].SubItems = items
	}
	return out
}

// NormalizePayments returns a copy of the payments with negative amounts
// counted as 0.
func NormalizePayments(payments []domain.PaymentRecord) []domain.PaymentRecord {
	if payments == nil {
		return nil
	}
	out := make([]domain.PaymentRecord, len(payments))
	for k, p := range payments {
		if p.Amount < 0 {
			p.Amount = 0
		}
		out[k] = p
	}
	return out
}

// CheckTotals rejects totals that left the float64 range. Amounts decoded
// from input are bounded by domain.MaxAmount; this catches values built in
// code or stored rows that bypassed that bound.
func CheckTotals(t domain.BillingTotals) error {
	for _, a := range []domain.Amount{t.PackageAmount, t.NetAmount, t.TotalReceivedAmount, t.BalanceAmount} {
		if !a.IsFinite() {
			return &domain.ErrValidation{Field: "package_amount", Message: "amounts are out of range"}
		}
	}
	return nil
}

// Summarize returns the per-inclusion breakdown of already-normalized inclusions.
func Summarize(inclusions []domain.PackageInclusion) []domain.InclusionSummary {
	out := make([]domain.InclusionSummary, 0, len(inclusions))
	for _, inc := range inclusions {
		amounts := make([]domain.Amount, 0, len(inc.SubItems))
		for _, it := range inc.SubItems {
			amounts = append(amounts, it.Amount)
		}
		out = append(out, domain.InclusionSummary{
			Name:            inc.Name,
			Amount:          inc.Amount,
			SubItemsTotal:   SubItemsTotal(inc.SubItems),
			RemainingAmount: InclusionRemaining(inc),
			SubItemAmounts:  amounts,
		})
	}
	return out
}

// Calculate previews the derived fields of an unsaved bill.
func Calculate(in domain.BillingInput) domain.BillingCalculation {
	inclusions := NormalizeSubItems(in.PackageInclusions)
	return domain.BillingCalculation{
		BillingTotals: Recompute(inclusions, in.Discount, NormalizePayments(in.PaymentRecords)),
		Inclusions:    Summarize(inclusions),
	}
}

// Finalize brings every derived field of rec in line with its current
// inclusions, discount and payments, overriding whatever was there before.
// It must run immediately before rec is persisted.
func Finalize(rec *domain.InPatient) {
	if rec == nil {
		return
	}
	rec.PackageInclusions = NormalizeSubItems(rec.PackageInclusions)
	rec.PaymentRecords = NormalizePayments(rec.PaymentRecords)
	apply(rec, Recompute(rec.PackageInclusions, rec.Discount, rec.PaymentRecords))
}

func apply(rec *domain.InPatient, t domain.BillingTotals) {
	rec.PackageAmount = t.PackageAmount
	rec.NetAmount = t.NetAmount
	rec.TotalReceivedAmount = t.TotalReceivedAmount
	rec.BalanceAmount = t.BalanceAmount
}
