package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Order is a single-item checkout order. Customers identify orders by
// Permalink only; ID and Number never appear in public URLs.
type Order struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	Permalink string    `json:"permalink"`

	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address" validate:"required,email"`
	StreetLine1  string `json:"street_line_1"`
	StreetLine2  string `json:"street_line_2"`
	PostalCode   string `json:"postal_code" validate:"required"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country" validate:"required"`

	AmountCents     int64      `json:"amount_cents"`
	PaymentIntentID string     `json:"payment_intent_id"`
	PaidAt          *time.Time `json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Paid reports whether the payment has been reconciled locally.
func (o *Order) Paid() bool {
	return o != nil && o.PaidAt != nil
}

// Price returns the order amount in the system currency.
func (o *Order) Price(currency string) Price {
	return Price{Cents: o.AmountCents, Currency: currency}
}

var orderValidator = validator.New()

var fieldLabels = map[string]string{
	"FirstName":    "First name",
	"LastName":     "Last name",
	"EmailAddress": "Email address",
	"StreetLine1":  "Street line 1",
	"StreetLine2":  "Street line 2",
	"PostalCode":   "Postal code",
	"City":         "City",
	"Region":       "Region",
	"Country":      "Country",
}

// Validate checks the required-presence and format invariants on billing
// fields. It returns nil when the order is valid.
func (o *Order) Validate() *ValidationErrors {
	err := orderValidator.Struct(o)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verrs := &ValidationErrors{}
		verrs.AddBase("Order cannot be saved.")
		return verrs
	}

	verrs := &ValidationErrors{}
	for _, fe := range fieldErrs {
		label := fieldLabels[fe.StructField()]
		if label == "" {
			label = fe.StructField()
		}
		switch fe.Tag() {
		case "required":
			verrs.Add(fe.StructField(), label+" can't be blank")
		case "email":
			verrs.Add(fe.StructField(), label+" is invalid")
		default:
			verrs.Add(fe.StructField(), label+" is invalid")
		}
	}
	return verrs
}

// FieldError is a single human-readable validation message tied to a field.
// Base errors (field "") carry failures that are not about any one field,
// such as payment preparation problems.
type FieldError struct {
	Field   string
	Message string
}

type ValidationErrors struct {
	Errors []FieldError
}

func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

func (e *ValidationErrors) AddBase(message string) {
	e.Add("", message)
}

func (e *ValidationErrors) Any() bool {
	return e != nil && len(e.Errors) > 0
}

// Messages returns all messages in the order they were recorded.
func (e *ValidationErrors) Messages() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		out = append(out, fe.Message)
	}
	return out
}

func (e *ValidationErrors) Error() string {
	if !e.Any() {
		return "order is invalid"
	}
	return "order is invalid: " + strings.Join(e.Messages(), "; ")
}
