package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"Order Placed", "Completed", "Cancelled"} {
		_, ok := ParseOrderStatus(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"Pending", "completed", "Shipped", ""} {
		_, ok := ParseOrderStatus(s)
		assert.False(t, ok, s)
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPlaced.IsTerminal())
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
}

func TestValidPincode(t *testing.T) {
	assert.True(t, ValidPincode("500001"))
	assert.False(t, ValidPincode("050001"))
	assert.False(t, ValidPincode("50001"))
	assert.False(t, ValidPincode("5000011"))
	assert.False(t, ValidPincode("50000a"))
}

func TestDeliveryAddress_Formatted(t *testing.T) {
	a := DeliveryAddress{Street: "12 Road No 5", Area: "Banjara Hills", City: "Hyderabad", Pincode: "500034"}
	assert.Equal(t, "12 Road No 5, Banjara Hills, Hyderabad - 500034", a.Formatted())

	a.Landmark = "City Center Mall"
	assert.Equal(t, "12 Road No 5, Banjara Hills, Hyderabad - 500034, Near City Center Mall", a.Formatted())

	a.Landmark = "   "
	assert.Equal(t, "12 Road No 5, Banjara Hills, Hyderabad - 500034", a.Formatted())
}

func TestSumLineItems(t *testing.T) {
	items := []OrderItem{
		{Quantity: 2, Price: decimal.NewFromInt(550)},
		{Quantity: 1, Price: decimal.RequireFromString("999.50")},
	}
	assert.True(t, decimal.RequireFromString("2099.50").Equal(SumLineItems(items)))
	assert.True(t, decimal.Zero.Equal(SumLineItems(nil)))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.True(t, Actor{UserID: "u", Role: r}.IsAdmin())

	_, ok = ParseRole("ADMIN")
	assert.False(t, ok)
	assert.False(t, Actor{Role: RoleUser}.IsAdmin())
}

func TestFitsAmount(t *testing.T) {
	cases := map[string]bool{
		"0":              true,
		"550":            true,
		"10.5":           true,
		"10.50":          true,
		"10.500":         true,
		"10.005":         false,
		"9999999999.99":  true,
		"10000000000":    false,
		"-9999999999.99": true,
	}
	for in, want := range cases {
		assert.Equal(t, want, FitsAmount(decimal.RequireFromString(in)), in)
	}
}
