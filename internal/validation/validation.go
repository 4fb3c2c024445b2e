// Package validation collects field-level input errors so handlers can
// report every problem with a request at once.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds the absolute value of any money amount
var MaxAmount = decimal.NewFromInt(1_000_000)

// FieldError describes one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is a list of field errors. A nil or empty list means the input is valid.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validator accumulates field errors
type Validator struct {
	errs Errors
}

// New creates an empty validator
func New() *Validator {
	return &Validator{}
}

// Add records an error for field
func (v *Validator) Add(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

// Check records message for field when ok is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.Add(field, message)
	}
}

// Merge appends the field errors carried by err. Other errors are returned unchanged.
func (v *Validator) Merge(err error) error {
	var errs Errors
	if errors.As(err, &errs) {
		v.errs = append(v.errs, errs...)
		return nil
	}
	return err
}

// Err returns the collected errors, or nil when there are none
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

// StringLength checks that value, after trimming, has between min and max characters
func (v *Validator) StringLength(field, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n < min && min == 1:
		v.Add(field, fmt.Sprintf("%s is required", field))
	case n < min:
		v.Add(field, fmt.Sprintf("%s must be at least %d characters", field, min))
	case n > max:
		v.Add(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
}

// MaxLength checks an optional string's length
func (v *Validator) MaxLength(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v.Add(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
}

// Amount checks a signed money amount: at most two decimal places and within MaxAmount
func (v *Validator) Amount(field string, amount decimal.Decimal) {
	if !HasCentPrecision(amount) {
		v.Add(field, "amount must have at most 2 decimal places")
		return
	}
	if amount.Abs().GreaterThan(MaxAmount) {
		v.Add(field, "amount must be between -1000000 and 1000000")
	}
}

// PositiveAmount checks an amount that must be greater than zero
func (v *Validator) PositiveAmount(field string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		v.Add(field, fmt.Sprintf("%s must be greater than 0", field))
		return
	}
	v.Amount(field, amount)
}

// HasCentPrecision reports whether d has no more than two fractional digits
func HasCentPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}
