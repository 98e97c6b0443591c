package models

import "testing"

func TestCartRecalculateTotal(t *testing.T) {
	cart := Cart{
		Items: []CartItem{
			{Quantity: 2, Price: 10},
			{Quantity: 1, Price: 5.50},
		},
	}

	cart.RecalculateTotal()
	if cart.TotalAmount != 25.50 {
		t.Errorf("total = %v, want 25.50", cart.TotalAmount)
	}
}

func TestCartRecalculateTotalEmpty(t *testing.T) {
	cart := Cart{Items: []CartItem{}}

	cart.RecalculateTotal()
	if cart.TotalAmount != 0 {
		t.Errorf("total = %v, want 0", cart.TotalAmount)
	}
}
