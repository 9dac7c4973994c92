package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustParseUUID(t *testing.T, value string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(value)
	if err != nil {
		t.Fatalf("failed to parse uuid: %v", err)
	}
	return id
}

func validOrder() *Order {
	return &Order{
		FirstName:    "Homer",
		LastName:     "Simpson",
		EmailAddress: "homer@example.com",
		StreetLine1:  "742 Evergreen Terrace",
		PostalCode:   "10001",
		City:         "New York",
		Region:       "NY",
		Country:      "US",
		AmountCents:  299,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*Order)
		wantMessage string
	}{
		{
			name:   "valid order",
			mutate: func(o *Order) {},
		},
		{
			name:        "missing first name",
			mutate:      func(o *Order) { o.FirstName = "" },
			wantMessage: "First name can't be blank",
		},
		{
			name:        "missing email address",
			mutate:      func(o *Order) { o.EmailAddress = "" },
			wantMessage: "Email address can't be blank",
		},
		{
			name:        "malformed email address",
			mutate:      func(o *Order) { o.EmailAddress = "not-an-email" },
			wantMessage: "Email address is invalid",
		},
		{
			name:        "missing postal code",
			mutate:      func(o *Order) { o.PostalCode = "" },
			wantMessage: "Postal code can't be blank",
		},
		{
			name:        "missing country",
			mutate:      func(o *Order) { o.Country = "" },
			wantMessage: "Country can't be blank",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			order := validOrder()
			tt.mutate(order)

			verrs := order.Validate()
			if tt.wantMessage == "" {
				if verrs.Any() {
					t.Fatalf("expected valid order, got %v", verrs)
				}
				return
			}

			if !verrs.Any() {
				t.Fatalf("expected validation errors, got none")
			}
			found := false
			for _, msg := range verrs.Messages() {
				if msg == tt.wantMessage {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected message %q in %v", tt.wantMessage, verrs.Messages())
			}
		})
	}
}

func TestValidateOptionalFieldsMayBeBlank(t *testing.T) {
	t.Parallel()

	order := validOrder()
	order.LastName = ""
	order.StreetLine1 = ""
	order.StreetLine2 = ""
	order.City = ""
	order.Region = ""

	if verrs := order.Validate(); verrs.Any() {
		t.Fatalf("expected valid order, got %v", verrs)
	}
}

func TestBillingDetails(t *testing.T) {
	t.Parallel()

	order := validOrder()
	details := order.BillingDetails()

	if details.Name != "Homer Simpson" {
		t.Fatalf("unexpected name: %q", details.Name)
	}
	if details.Email != "homer@example.com" {
		t.Fatalf("unexpected email: %q", details.Email)
	}
	if details.Address == nil {
		t.Fatalf("expected address to be present")
	}
	if details.Address.Line1 != "742 Evergreen Terrace" || details.Address.State != "NY" {
		t.Fatalf("unexpected address: %+v", details.Address)
	}
}

func TestBillingDetailsOmitsEmptyFields(t *testing.T) {
	t.Parallel()

	order := &Order{
		ID:              mustParseUUID(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Number:          "000000000042",
		PaymentIntentID: "pi_123",
		EmailAddress:    "homer@example.com",
	}

	payload, err := json.Marshal(order.BillingDetails())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"email":"homer@example.com"}`
	if string(payload) != want {
		t.Fatalf("unexpected payload: got=%s want=%s", payload, want)
	}
	for _, internal := range []string{"pi_123", "000000000042", "6ba7b810"} {
		if strings.Contains(string(payload), internal) {
			t.Fatalf("billing details leaked internal field %q: %s", internal, payload)
		}
	}
}

func TestBillingDetailsDropsNameWhenBlank(t *testing.T) {
	t.Parallel()

	order := validOrder()
	order.FirstName = ""
	order.LastName = ""

	payload, err := json.Marshal(order.BillingDetails())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(payload), `"name"`) {
		t.Fatalf("expected name to be omitted: %s", payload)
	}
}

func TestPaid(t *testing.T) {
	t.Parallel()

	order := validOrder()
	if order.Paid() {
		t.Fatalf("expected unpaid order")
	}

	now := time.Now()
	order.PaidAt = &now
	if !order.Paid() {
		t.Fatalf("expected paid order")
	}
}

func TestPriceFormat(t *testing.T) {
	t.Parallel()

	got := Price{Cents: 299, Currency: "USD"}.Format()
	if !strings.Contains(got, "2.99") || !strings.Contains(got, "$") {
		t.Fatalf("unexpected formatted price: %q", got)
	}
}

func TestPriceFormatUnknownCurrency(t *testing.T) {
	t.Parallel()

	got := Price{Cents: 150, Currency: "???"}.Format()
	if got != "1.50 ???" {
		t.Fatalf("unexpected formatted price: %q", got)
	}
}
