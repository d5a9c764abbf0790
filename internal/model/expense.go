package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var errBodyNotObject = errors.New("request body must be a JSON object")

// Categories with balance semantics. Any other category is stored as-is
// and ignored by the balance.
const (
	CategoryInvoice = "invoice"
	CategoryPayment = "payment"
)

// Expense is a single recorded financial entry.
type Expense struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Recipient   string          `json:"recipient"`
	Description string          `json:"description"`
	Time        time.Time       `json:"time"`
	Status      bool            `json:"status"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// MatchesSearch reports whether category or recipient contains term,
// ignoring case. An empty term matches everything.
func (e *Expense) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.Category), term) ||
		strings.Contains(strings.ToLower(e.Recipient), term)
}

// InRange reports whether the creation time lies within [start, end].
func (e *Expense) InRange(start, end time.Time) bool {
	return !e.Time.Before(start) && !e.Time.After(end)
}

// Balance is the derived invoice/payment total.
type Balance struct {
	TotalBalance decimal.Decimal `json:"totalBalance"`
}

// ExpenseFields holds the client-writable fields of an expense as they
// appeared in a request body. A nil pointer means the field was absent.
// Fields present with the wrong JSON type are left nil and reported by
// Validate on the enclosing request.
type ExpenseFields struct {
	Amount      *decimal.Decimal
	Category    *string
	Recipient   *string
	Description *string
	Status      *bool

	present    map[string]bool
	typeErrors []FieldError
}

// UnmarshalJSON type-checks each known field. Unknown fields, including
// id, time and updatedAt, are dropped.
func (f *ExpenseFields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errBodyNotObject
	}

	*f = ExpenseFields{present: make(map[string]bool)}

	f.Category = f.decodeString(raw, "category")
	f.Recipient = f.decodeString(raw, "recipient")
	f.Description = f.decodeString(raw, "description")

	if v, ok := raw["amount"]; ok {
		f.present["amount"] = true
		amount, ok := parseAmount(v)
		switch {
		case !ok:
			f.typeErrors = append(f.typeErrors, FieldError{Field: "amount", Message: "amount must be a number"})
		case !amountInRange(amount):
			f.typeErrors = append(f.typeErrors, FieldError{Field: "amount", Message: "amount is out of range"})
		default:
			f.Amount = &amount
		}
	}

	if v, ok := raw["status"]; ok {
		f.present["status"] = true
		var b bool
		if isJSONBool(v) && json.Unmarshal(v, &b) == nil {
			f.Status = &b
		} else {
			f.typeErrors = append(f.typeErrors, FieldError{Field: "status", Message: "status must be a boolean"})
		}
	}

	return nil
}

func (f *ExpenseFields) decodeString(raw map[string]json.RawMessage, field string) *string {
	v, ok := raw[field]
	if !ok {
		return nil
	}
	f.present[field] = true

	var s string
	if bytes.HasPrefix(bytes.TrimSpace(v), []byte(`"`)) && json.Unmarshal(v, &s) == nil {
		return &s
	}
	f.typeErrors = append(f.typeErrors, FieldError{Field: field, Message: field + " must be a string"})
	return nil
}

// Present reports whether field appeared in the body, regardless of type.
func (f *ExpenseFields) Present(field string) bool {
	return f.present[field]
}

// Apply overlays the supplied fields onto e. id, time and updatedAt are
// never touched.
func (f *ExpenseFields) Apply(e *Expense) {
	if f.Amount != nil {
		e.Amount = *f.Amount
	}
	if f.Category != nil {
		e.Category = *f.Category
	}
	if f.Recipient != nil {
		e.Recipient = *f.Recipient
	}
	if f.Description != nil {
		e.Description = *f.Description
	}
	if f.Status != nil {
		e.Status = *f.Status
	}
}

func parseAmount(v json.RawMessage) (decimal.Decimal, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || !(v[0] == '-' || (v[0] >= '0' && v[0] <= '9')) {
		return decimal.Decimal{}, false
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, false
	}
	if d.IsZero() {
		return decimal.Zero, true
	}
	return d, true
}

// Amounts are held to float64 magnitude and precision so that encoding
// and summing stay proportional to the request size.
const (
	maxAmountExponent = 308
	minAmountExponent = -324
)

func amountInRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	exp := int64(d.Exponent())
	if exp < minAmountExponent {
		return false
	}
	return exp+int64(d.NumDigits())-1 <= maxAmountExponent
}

func isJSONBool(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return bytes.Equal(v, []byte("true")) || bytes.Equal(v, []byte("false"))
}

// CreateExpenseRequest is the body of POST /expenses.
type CreateExpenseRequest struct {
	ExpenseFields
}

// Validate requires category, recipient, amount and status with their JSON
// types. description is optional but must be a string when present.
func (r *CreateExpenseRequest) Validate() []FieldError {
	errs := append([]FieldError(nil), r.typeErrors...)

	required := []struct {
		field   string
		message string
	}{
		{"category", "category must be a string"},
		{"recipient", "recipient must be a string"},
		{"amount", "amount must be a number"},
		{"status", "status must be a boolean"},
	}
	for _, req := range required {
		if !r.Present(req.field) {
			errs = append(errs, FieldError{Field: req.field, Message: req.message})
		}
	}

	return errs
}

// UpdateExpenseRequest is the body of PUT /expenses/{id}. Every field is
// optional; present fields must carry the same types as on create.
type UpdateExpenseRequest struct {
	ExpenseFields
}

// Validate reports fields present with the wrong JSON type.
func (r *UpdateExpenseRequest) Validate() []FieldError {
	return append([]FieldError(nil), r.typeErrors...)
}
