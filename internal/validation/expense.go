// Package validation checks submitted expense forms before they reach storage.
package validation

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expensetracker/internal/models"
)

// Field names used as keys in Errors.
const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldDescription = "description"
)

const (
	msgRequired = "This field is required."

	// maxIntegerDigits follows a 10-digit amount with 2 decimal places.
	maxIntegerDigits = 8
	decimalPlaces    = 2

	// maxScale bounds the fractional digits accepted before rounding checks.
	maxScale = 20
)

// ExpenseForm is an expense as submitted by a client, before parsing.
type ExpenseForm struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Errors maps a field name to its error message. Only offending fields are present.
type Errors map[string]string

// Error joins all field messages in field order.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "invalid expense: " + strings.Join(parts, "; ")
}

// ValidateExpense parses form and returns the accepted input, or Errors with
// one entry per offending field.
func ValidateExpense(form ExpenseForm) (models.ExpenseInput, error) {
	var in models.ExpenseInput
	errs := Errors{}

	if amount, msg := parseAmount(form.Amount); msg != "" {
		errs[FieldAmount] = msg
	} else {
		in.Amount = amount
	}

	category := strings.TrimSpace(form.Category)
	switch {
	case category == "":
		errs[FieldCategory] = msgRequired
	case !models.Category(category).Valid():
		errs[FieldCategory] = fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", category)
	default:
		in.Category = models.Category(category)
	}

	date := strings.TrimSpace(form.Date)
	if date == "" {
		errs[FieldDate] = msgRequired
	} else if d, err := models.ParseDate(date); err != nil {
		errs[FieldDate] = "Enter a valid date."
	} else {
		in.Date = d
	}

	if n := utf8.RuneCountInString(form.Description); n > models.MaxDescriptionLength {
		errs[FieldDescription] = fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", models.MaxDescriptionLength, n)
	} else {
		in.Description = form.Description
	}

	if len(errs) > 0 {
		return models.ExpenseInput{}, errs
	}
	return in, nil
}

// parseAmount returns the amount or a user-facing message.
func parseAmount(raw string) (decimal.Decimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, msgRequired
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, "Enter a number."
	}
	if !d.IsPositive() {
		return decimal.Zero, "Amount must be greater than zero."
	}

	// Exponent notation such as "1e30000000" must be bounded before any
	// comparison, since rescaling materializes every digit.
	exp := int64(d.Exponent())
	if int64(len(d.Coefficient().String()))+exp > maxIntegerDigits {
		return decimal.Zero, fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxIntegerDigits)
	}
	if exp < -maxScale || !d.Equal(d.Truncate(decimalPlaces)) {
		return decimal.Zero, fmt.Sprintf("Ensure that there are no more than %d decimal places.", decimalPlaces)
	}
	return d.Truncate(decimalPlaces), ""
}
