package services

import (
	"fmt"
	"sort"
	"strings"

	"cafebot/models"
)

// PriceCart computes the cart total against the live menu. Items absent from
// the menu contribute zero and are reported in skipped; they are never priced
// at zero silently nor treated as an error. This preserves the documented
// under-pricing behavior for stale carts.
func PriceCart(cart models.Cart, menu map[string]int64) (total int64, skipped []string) {
	for item, qty := range cart {
		price, ok := menu[item]
		if !ok {
			skipped = append(skipped, item)
			continue
		}
		total += price * int64(qty)
	}
	sort.Strings(skipped)
	return total, skipped
}

// ItemOnMenu verifies name is still addressable on the live menu.
func ItemOnMenu(t *models.TenantContext, name string) error {
	if !t.HasItem(name) {
		return ErrItemUnavailable
	}
	return nil
}

// FilterCart returns a copy of cart restricted to items on the live menu.
// Used when replaying a stored snapshot into a new session.
func FilterCart(cart models.Cart, menu map[string]int64) models.Cart {
	out := models.Cart{}
	for item, qty := range cart {
		if _, ok := menu[item]; ok && qty > 0 {
			out[item] = qty
		}
	}
	return out
}

// CartLines renders one "name × qty — sum" line per priced item, sorted by
// name for stable output. Unpriced items are omitted.
func CartLines(cart models.Cart, menu map[string]int64) []string {
	names := make([]string, 0, len(cart))
	for item := range cart {
		if _, ok := menu[item]; ok {
			names = append(names, item)
		}
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, item := range names {
		lines = append(lines, fmt.Sprintf("%s × %d — %d", item, cart[item], menu[item]*int64(cart[item])))
	}
	return lines
}

// CartSummary renders the cart with its total for user display.
func CartSummary(cart models.Cart, menu map[string]int64) string {
	if cart.IsEmpty() {
		return "Your cart is empty."
	}
	total, _ := PriceCart(cart, menu)
	lines := CartLines(cart, menu)
	return fmt.Sprintf("🛒 Your cart:\n%s\n\nTotal: %d", strings.Join(lines, "\n"), total)
}
