package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cafebot/models"
)

var testMenu = map[string]int64{
	"Latte": 200,
	"Mocha": 250,
}

func TestPriceCart(t *testing.T) {
	total, skipped := PriceCart(models.Cart{"Latte": 2, "Mocha": 1}, testMenu)
	assert.Equal(t, int64(650), total)
	assert.Empty(t, skipped)
}

func TestPriceCartEmptyCart(t *testing.T) {
	total, skipped := PriceCart(models.Cart{}, testMenu)
	assert.Zero(t, total)
	assert.Empty(t, skipped)
}

func TestPriceCartStaleItems(t *testing.T) {
	// Mocha was removed from the menu after being added to the cart: it
	// contributes nothing to the total and is reported, not erred on.
	menu := map[string]int64{"Latte": 200}
	total, skipped := PriceCart(models.Cart{"Latte": 2, "Mocha": 3, "Americano": 1}, menu)
	assert.Equal(t, int64(400), total)
	assert.Equal(t, []string{"Americano", "Mocha"}, skipped)
}

func TestPriceCartAdjustRoundTrip(t *testing.T) {
	cart := models.Cart{"Latte": 2}
	before, _ := PriceCart(cart, testMenu)
	cart.Adjust("Latte", 1)
	cart.Adjust("Latte", -1)
	after, _ := PriceCart(cart, testMenu)
	assert.Equal(t, before, after)
}

func TestItemOnMenu(t *testing.T) {
	tc := &models.TenantContext{Menu: testMenu}
	assert.NoError(t, ItemOnMenu(tc, "Latte"))
	assert.ErrorIs(t, ItemOnMenu(tc, "Americano"), ErrItemUnavailable)
}

func TestFilterCart(t *testing.T) {
	menu := map[string]int64{"Latte": 200}
	got := FilterCart(models.Cart{"Latte": 2, "Mocha": 1}, menu)
	assert.Equal(t, models.Cart{"Latte": 2}, got)

	assert.True(t, FilterCart(models.Cart{"Mocha": 1}, menu).IsEmpty())
}

func TestCartLinesSorted(t *testing.T) {
	lines := CartLines(models.Cart{"Mocha": 1, "Latte": 2}, testMenu)
	assert.Equal(t, []string{
		"Latte × 2 — 400",
		"Mocha × 1 — 250",
	}, lines)
}

func TestCartSummary(t *testing.T) {
	assert.Equal(t, "Your cart is empty.", CartSummary(models.Cart{}, testMenu))

	s := CartSummary(models.Cart{"Latte": 1}, testMenu)
	assert.Contains(t, s, "Latte × 1 — 200")
	assert.Contains(t, s, "Total: 200")
}
