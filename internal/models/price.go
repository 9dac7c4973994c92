package models

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Price is a monetary value in minor units of a fixed ISO 4217 currency.
type Price struct {
	Cents    int64
	Currency string
}

var pricePrinter = message.NewPrinter(language.English)

// Format renders the price with the currency symbol, e.g. "$2.99".
func (p Price) Format() string {
	unit, err := currency.ParseISO(p.Currency)
	if err != nil {
		return fmt.Sprintf("%.2f %s", float64(p.Cents)/100, p.Currency)
	}
	amount := unit.Amount(float64(p.Cents) / 100)
	return pricePrinter.Sprint(currency.Symbol(amount))
}
