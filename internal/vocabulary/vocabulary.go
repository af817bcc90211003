// Package vocabulary implements the editable dropdowns of the clinic forms:
// a mutable set of suggested values for a free-text field, extended on demand.
//
// Matching is case-insensitive. Text that equals a known option resolves to
// that option's stored casing; anything else is new and is upper-cased
// before it is proposed for permanent storage.
package vocabulary

import "strings"

// Field names with built-in options.
const (
	FieldAmountType    = "amount_type"
	FieldPaymentMode   = "payment_mode"
	FieldInclusionName = "inclusion_name"
	FieldDoctor        = "doctor"
	FieldProcedure     = "procedure"
)

var defaults = map[string][]string{
	FieldAmountType:  {"Advance", "Insurance", "Final Payment", "Additional Charges"},
	FieldPaymentMode: {"Cash", "UPI", "Card", "Cheque", "Net Banking"},
	FieldInclusionName: {
		"Surgery Charges",
		"Room Charges",
		"Medicine Charges",
		"Doctor Fees",
		"Nursing Charges",
		"Lens Charges",
		"OT Charges",
		"Investigation Charges",
	},
	FieldProcedure: {"Cataract Surgery", "Phaco", "SICS", "Trabeculectomy", "Vitrectomy", "Pterygium Excision"},
}

// Defaults returns the built-in options of field, or nil.
func Defaults(field string) []string {
	d := defaults[field]
	if d == nil {
		return nil
	}
	return append([]string(nil), d...)
}

// Fields lists the vocabulary-backed form fields.
func Fields() []string {
	return []string{FieldAmountType, FieldPaymentMode, FieldInclusionName, FieldDoctor, FieldProcedure}
}

// Known reports whether field is one of the form fields backed by a vocabulary.
func Known(field string) bool {
	switch field {
	case FieldAmountType, FieldPaymentMode, FieldInclusionName, FieldDoctor, FieldProcedure:
		return true
	}
	return false
}

// Resolution is the outcome of resolving user input against a vocabulary.
type Resolution struct {
	Value string
	IsNew bool
}

// Vocabulary is the option set of one field. Not safe for concurrent use.
type Vocabulary struct {
	field   string
	options []string
	index   map[string]int // lower-cased option -> position
}

// New builds a vocabulary from options in order, dropping blanks and
// case-insensitive duplicates (the first casing wins).
func New(field string, options ...[]string) *Vocabulary {
	v := &Vocabulary{field: field, index: make(map[string]int)}
	for _, set := range options {
		for _, o := range set {
			v.Add(o)
		}
	}
	return v
}

// Field returns the field name.
func (v *Vocabulary) Field() string { return v.field }

// Options returns the options in insertion order.
func (v *Vocabulary) Options() []string {
	out := make([]string, len(v.options))
	copy(out, v.options)
	return out
}

// Suggest returns the options containing input, ignoring case. Blank input
// matches everything.
func (v *Vocabulary) Suggest(input string) []string {
	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return v.Options()
	}
	out := make([]string, 0, len(v.options))
	for _, o := range v.options {
		if strings.Contains(strings.ToLower(o), needle) {
			out = append(out, o)
		}
	}
	return out
}

// Lookup returns the stored casing of the option equal to input, ignoring case.
func (v *Vocabulary) Lookup(input string) (string, bool) {
	key := normalize(input)
	if key == "" {
		return "", false
	}
	i, ok := v.index[key]
	if !ok {
		return "", false
	}
	return v.options[i], true
}

// Resolve maps input to the value that should be stored in the form field.
// Blank input resolves to "" and is never new.
func (v *Vocabulary) Resolve(input string) Resolution {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Resolution{}
	}
	if canonical, ok := v.Lookup(trimmed); ok {
		return Resolution{Value: canonical}
	}
	return Resolution{Value: strings.ToUpper(trimmed), IsNew: true}
}

// Add inserts value as given and reports whether it was not already present.
func (v *Vocabulary) Add(value string) bool {
	trimmed := strings.TrimSpace(value)
	key := normalize(trimmed)
	if key == "" {
		return false
	}
	if _, ok := v.index[key]; ok {
		return false
	}
	v.index[key] = len(v.options)
	v.options = append(v.options, trimmed)
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
