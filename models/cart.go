package models

// Cart maps item name to quantity. Quantities are always positive; an item
// driven to zero is removed from the map entirely.
type Cart map[string]int

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// Add merges qty of item into the cart, additive to any existing quantity.
func (c Cart) Add(item string, qty int) {
	if qty <= 0 {
		return
	}
	c[item] += qty
}

// Adjust changes the quantity of item by delta, removing it at zero or below.
// Adjusting an item that is not in the cart is a no-op.
func (c Cart) Adjust(item string, delta int) {
	cur, ok := c[item]
	if !ok {
		return
	}
	next := cur + delta
	if next <= 0 {
		delete(c, item)
		return
	}
	c[item] = next
}

func (c Cart) Remove(item string) {
	delete(c, item)
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
