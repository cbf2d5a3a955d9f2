package domain

import "github.com/shopspring/decimal"

// FlatShipping is charged once for any non-empty cart.
var FlatShipping = decimal.NewFromInt(5)

type SummaryLine struct {
	ProductID int64
	Name      string
	Quantity  int
	LineTotal decimal.Decimal
}

type CheckoutSummary struct {
	Lines    []SummaryLine
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

func Summarize(cart Cart) CheckoutSummary {
	summary := CheckoutSummary{
		Lines:    make([]SummaryLine, 0, len(cart.Items)),
		Subtotal: cart.Subtotal(),
		Shipping: decimal.Zero,
	}
	for _, item := range cart.Items {
		summary.Lines = append(summary.Lines, SummaryLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	if !cart.IsEmpty() {
		summary.Shipping = FlatShipping
	}
	summary.Total = summary.Subtotal.Add(summary.Shipping)
	return summary
}
