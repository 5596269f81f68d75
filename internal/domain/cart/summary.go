package cart

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied on top of the cart total.
var TaxRate = decimal.RequireFromString("0.08")

// Summary is the presentation pricing shown by the cart and checkout views.
// It is never stored in cart state; recompute it from State.Total.
type Summary struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	GrandTotal decimal.Decimal
}

// Summarize derives tax, shipping and grand total from a cart total.
// Shipping is always free. Amounts are exact; round at display time.
func Summarize(total decimal.Decimal) Summary {
	tax := total.Mul(TaxRate)
	return Summary{
		Subtotal:   total,
		Tax:        tax,
		Shipping:   decimal.Zero,
		GrandTotal: total.Add(tax),
	}
}
