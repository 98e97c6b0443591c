package pricing

import "math"

// TaxRate is applied to the items subtotal.
const TaxRate = 0.10

// Line is a (quantity, unit price) pair from an order request.
type Line struct {
	Quantity int
	Price    float64
}

// OrderTotals carries the derived price fields persisted on an order.
type OrderTotals struct {
	ItemsPrice    float64
	TaxPrice      float64
	ShippingPrice float64
	Discount      float64
	TotalPrice    float64
}

// CalculateOrderTotals computes the order price breakdown from its line items
// and an already-evaluated discount. Shipping is free across the board. The
// total is floored at zero.
func CalculateOrderTotals(lines []Line, discount float64) OrderTotals {
	itemsPrice := 0.0
	for _, line := range lines {
		itemsPrice += float64(line.Quantity) * line.Price
	}

	taxPrice := round2(itemsPrice * TaxRate)
	shippingPrice := 0.0

	totalPrice := itemsPrice + taxPrice + shippingPrice - discount
	if totalPrice < 0 {
		totalPrice = 0
	}

	return OrderTotals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		Discount:      discount,
		TotalPrice:    totalPrice,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
