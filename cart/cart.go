package cart

import (
	"sync"

	"github.com/olprint/storefront/catalog"
	"github.com/olprint/storefront/core"
)

// Item is one cart entry: a product snapshot plus a quantity of at least 1
type Item struct {
	Product  catalog.Product
	Quantity int
}

// Cart holds the customer's pending purchase, keyed by product ID with
// insertion order preserved. Quantities never drop below 1 through
// UpdateQuantity; removal is always explicit.
type Cart struct {
	mu     sync.RWMutex
	items  []Item
	lookup func(id string) (catalog.Product, error)
	logger core.Logger
}

// New creates an empty cart. The lookup function resolves product IDs for
// AddByID; typically the catalog's Get.
func New(lookup func(id string) (catalog.Product, error), logger core.Logger) *Cart {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Cart{lookup: lookup, logger: logger}
}

// Add puts a product in the cart, incrementing the quantity when it is
// already there.
func (c *Cart) Add(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, Item{Product: p, Quantity: 1})
}

// AddByID resolves a product ID and adds it to the cart. Returns false when
// the product does not exist; used by the chat capability, which folds the
// outcome into the model follow-up rather than treating it as an error.
func (c *Cart) AddByID(id string) bool {
	if c.lookup == nil {
		return false
	}
	p, err := c.lookup(id)
	if err != nil {
		c.logger.Warn("Cart add by ID failed", map[string]interface{}{
			"operation":  "cart_add_by_id",
			"product_id": id,
			"error":      err.Error(),
		})
		return false
	}
	c.Add(p)
	return true
}

// UpdateQuantity changes an item's quantity by delta. A change that would
// take the quantity to zero or below leaves the item untouched.
func (c *Cart) UpdateQuantity(id string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == id {
			if next := c.items[i].Quantity + delta; next > 0 {
				c.items[i].Quantity = next
			}
			return
		}
	}
}

// Remove deletes an item from the cart
func (c *Cart) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Items returns the cart contents in insertion order
func (c *Cart) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns the total quantity across all items
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Subtotal returns the price sum across all items
func (c *Cart) Subtotal() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total float64
	for _, item := range c.items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
