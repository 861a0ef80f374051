// Package order mutates the cart inside a dialog context. Every operation
// leaves the context consistent: the subtotal is recomputed over the full
// cart after each change, so it can never drift from the line items.
package order

import "avos/internal/domain"

// AddItem adds quantity units of item to the cart, merging with an existing
// line for the same menu item id. quantity below one is treated as one; the
// customer asking for "a kung pao chicken" means one.
func AddItem(dc *domain.DialogContext, item domain.MenuItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	line := domain.OrderItem{
		MenuItemID: item.ID,
		Name:       item.Name,
		Quantity:   quantity,
		PriceCents: item.PriceCents,
	}
	if existing, ok := dc.Cart.Get(item.ID); ok {
		line.Quantity += existing.Quantity
	}
	dc.Cart.Put(line)
	recompute(dc)
}

// RemoveItem drops the line for menuItemID. Removing an absent id is a
// no-op, not an error: the customer may be retracting something the engine
// never added.
func RemoveItem(dc *domain.DialogContext, menuItemID string) {
	dc.Cart.Remove(menuItemID)
	recompute(dc)
}

// SetQuantity sets the quantity for an existing line. A quantity of zero or
// less removes the line. Setting an absent id is a no-op.
func SetQuantity(dc *domain.DialogContext, menuItemID string, quantity int) {
	existing, ok := dc.Cart.Get(menuItemID)
	if !ok {
		return
	}
	if quantity <= 0 {
		dc.Cart.Remove(menuItemID)
		recompute(dc)
		return
	}
	existing.Quantity = quantity
	dc.Cart.Put(existing)
	recompute(dc)
}

func recompute(dc *domain.DialogContext) {
	dc.SubtotalCents = dc.Cart.SubtotalCents()
}
