package domain

// OrderItem is one cart line. Quantity and price are always positive;
// the assembler removes a line rather than storing a zero quantity.
type OrderItem struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
}

// Cart is the mutable order state inside a DialogContext, keyed by menu item
// id with insertion order preserved for read-back.
type Cart struct {
	items map[string]OrderItem
	order []string
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{items: make(map[string]OrderItem)}
}

// Get returns the line for a menu item id, if present.
func (c *Cart) Get(menuItemID string) (OrderItem, bool) {
	it, ok := c.items[menuItemID]
	return it, ok
}

// Put inserts or replaces the line for item's menu item id.
func (c *Cart) Put(item OrderItem) {
	if _, ok := c.items[item.MenuItemID]; !ok {
		c.order = append(c.order, item.MenuItemID)
	}
	c.items[item.MenuItemID] = item
}

// Remove deletes the line for a menu item id. Removing an absent id is a
// no-op.
func (c *Cart) Remove(menuItemID string) {
	if _, ok := c.items[menuItemID]; !ok {
		return
	}
	delete(c.items, menuItemID)
	for i, id := range c.order {
		if id == menuItemID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Items returns the cart lines in insertion order.
func (c *Cart) Items() []OrderItem {
	out := make([]OrderItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// SubtotalCents computes the subtotal over the full cart.
func (c *Cart) SubtotalCents() int64 {
	var sum int64
	for _, it := range c.items {
		sum += it.PriceCents * int64(it.Quantity)
	}
	return sum
}
