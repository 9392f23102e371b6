// Package pricing derives cart subtotal, tax and total from priced lines.
package pricing

import "github.com/shopspring/decimal"

// Line is the priced view of one cart line.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals is always consistent: Total == Subtotal + Tax - Discount.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Calculator holds the configured tax rate (a fraction, 0.13 for 13%) and an
// optional flat promotional discount.
type Calculator struct {
	TaxRate  decimal.Decimal
	Discount decimal.Decimal
}

func NewCalculator(taxRate, discount decimal.Decimal) Calculator {
	return Calculator{TaxRate: taxRate, Discount: discount}
}

// Compute is pure: the same lines always give the same totals. Tax is rounded
// to cents; the discount never exceeds the subtotal.
func (c Calculator) Compute(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(c.TaxRate).Round(2)

	discount := decimal.Zero
	if c.Discount.IsPositive() {
		discount = decimal.Min(c.Discount, subtotal)
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}
