package pricing

import "testing"

func TestCalculateOrderTotals(t *testing.T) {
	totals := CalculateOrderTotals([]Line{
		{Quantity: 2, Price: 10},
		{Quantity: 1, Price: 5},
	}, 0)

	if totals.ItemsPrice != 25 {
		t.Fatalf("expected itemsPrice 25, got %v", totals.ItemsPrice)
	}
	if totals.TaxPrice != 2.5 {
		t.Fatalf("expected taxPrice 2.50, got %v", totals.TaxPrice)
	}
	if totals.ShippingPrice != 0 {
		t.Fatalf("expected shippingPrice 0, got %v", totals.ShippingPrice)
	}
	if totals.TotalPrice != 27.5 {
		t.Fatalf("expected totalPrice 27.50, got %v", totals.TotalPrice)
	}
}

func TestCalculateOrderTotalsWithDiscount(t *testing.T) {
	totals := CalculateOrderTotals([]Line{{Quantity: 1, Price: 100}}, 20)

	if totals.TotalPrice != 90 {
		t.Fatalf("expected totalPrice 90 (100 + 10 tax - 20), got %v", totals.TotalPrice)
	}
	if totals.TotalPrice != totals.ItemsPrice+totals.TaxPrice+totals.ShippingPrice-totals.Discount {
		t.Fatal("total does not match its components")
	}
}

func TestCalculateOrderTotalsInvariantHolds(t *testing.T) {
	vectors := []struct {
		lines    []Line
		discount float64
	}{
		{[]Line{{3, 19.99}, {1, 0.01}}, 5},
		{[]Line{{1, 0}}, 0},
		{[]Line{{10, 7.77}, {2, 12.5}, {1, 99}}, 15.5},
	}

	for i, v := range vectors {
		totals := CalculateOrderTotals(v.lines, v.discount)
		want := totals.ItemsPrice + totals.TaxPrice + totals.ShippingPrice - totals.Discount
		if totals.TotalPrice != want {
			t.Fatalf("vector %d: totalPrice %v != components %v", i, totals.TotalPrice, want)
		}
	}
}

func TestCalculateOrderTotalsFlooredAtZero(t *testing.T) {
	totals := CalculateOrderTotals([]Line{{Quantity: 1, Price: 10}}, 50)
	if totals.TotalPrice != 0 {
		t.Fatalf("expected total floored at 0, got %v", totals.TotalPrice)
	}
}

func TestCalculateOrderTotalsTaxRounding(t *testing.T) {
	// 3 x 3.33 = 9.99, tax = 0.999 -> 1.00
	totals := CalculateOrderTotals([]Line{{Quantity: 3, Price: 3.33}}, 0)
	if totals.TaxPrice != 1.0 {
		t.Fatalf("expected tax rounded to 1.00, got %v", totals.TaxPrice)
	}
}
