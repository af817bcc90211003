package domain

import (
	"math"
	"strconv"
	"strings"
)

// Amount is a money value in the clinic currency. Plain float64 arithmetic,
// no rounding policy.
//
// Amount and Quantity decode leniently from JSON: numbers, numeric strings,
// empty strings and null are all accepted, and anything that is not a finite
// number within ±MaxAmount becomes 0. Form fields arrive as whatever the
// user typed.
type Amount float64

// MaxAmount bounds the magnitude of a single entered amount. Sums and
// quantity × rate products of bounded amounts stay finite.
const MaxAmount Amount = 1e12

// Quantity is a whole-unit count on an itemized line.
type Quantity int

// ParseAmount coerces raw user input to an Amount. Non-numeric and
// out-of-range input is 0.
func ParseAmount(raw string) Amount {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.Abs(f) > float64(MaxAmount) {
		return 0
	}
	return Amount(f)
}

// ParseQuantity coerces raw user input to a Quantity. Fractions are truncated,
// negative and non-numeric input is 0.
func ParseQuantity(raw string) Quantity {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return Quantity(n)
	}
	f := float64(ParseAmount(s))
	if f <= 0 || f > math.MaxInt32 {
		return 0
	}
	return Quantity(math.Trunc(f))
}

// IsFinite reports whether a is neither infinite nor NaN.
func (a Amount) IsFinite() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = ParseAmount(rawJSONScalar(b))
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	*q = ParseQuantity(rawJSONScalar(b))
	return nil
}

// rawJSONScalar returns the text of a JSON number or string literal. Objects,
// arrays, booleans and null yield "" so they coerce to zero.
func rawJSONScalar(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return ""
	}
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return ""
		}
		return unquoted
	}
	if s[0] == '{' || s[0] == '[' || s == "true" || s == "false" {
		return ""
	}
	return s
}
