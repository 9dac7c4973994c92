package models

import "strings"

// BillingDetails is the recipient identity passed to the client-side payment
// confirmation call. Empty fields are omitted from the JSON payload, and it
// never carries server-internal identifiers.
type BillingDetails struct {
	Name    string          `json:"name,omitempty"`
	Email   string          `json:"email,omitempty"`
	Address *BillingAddress `json:"address,omitempty"`
}

type BillingAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a *BillingAddress) empty() bool {
	return a.Line1 == "" && a.Line2 == "" && a.City == "" &&
		a.State == "" && a.PostalCode == "" && a.Country == ""
}

// BillingDetails projects the order's billing fields into the structure the
// payment provider expects. The Address block is dropped entirely when every
// sub-field is blank.
func (o *Order) BillingDetails() BillingDetails {
	details := BillingDetails{
		Name:  strings.TrimSpace(strings.TrimSpace(o.FirstName) + " " + strings.TrimSpace(o.LastName)),
		Email: o.EmailAddress,
	}

	address := &BillingAddress{
		Line1:      o.StreetLine1,
		Line2:      o.StreetLine2,
		City:       o.City,
		State:      o.Region,
		PostalCode: o.PostalCode,
		Country:    o.Country,
	}
	if !address.empty() {
		details.Address = address
	}

	return details
}
