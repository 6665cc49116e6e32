package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/olprint/storefront/core"
)

// Catalog is the in-memory product store. All reads return copies; the
// admin surface mutates through Add/Update/Delete, which notify
// subscribers so dependent state (the chat system instruction) can be
// rebuilt.
type Catalog struct {
	mu          sync.RWMutex
	products    []Product
	logger      core.Logger
	subscribers []func()
}

// New creates a catalog preloaded with the given products
func New(logger core.Logger, products ...Product) *Catalog {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	c := &Catalog{logger: logger}
	c.products = append(c.products, products...)
	return c
}

// Subscribe registers a callback invoked after every catalog mutation.
// Callbacks run synchronously outside the catalog lock.
func (c *Catalog) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.mu.Unlock()
}

// List returns all products in insertion order
func (c *Catalog) List() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given ID
func (c *Catalog) Get(id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, &core.StoreError{
		Op:   "catalog.get",
		Kind: "product",
		ID:   id,
		Err:  core.ErrProductNotFound,
	}
}

// Add inserts a new product. An empty ID gets a generated one; a duplicate
// ID is rejected.
func (c *Catalog) Add(p Product) (Product, error) {
	if err := validate(p); err != nil {
		return Product{}, err
	}

	c.mu.Lock()
	if p.ID == "" {
		p.ID = "p-" + uuid.NewString()
	}
	for _, existing := range c.products {
		if existing.ID == p.ID {
			c.mu.Unlock()
			return Product{}, &core.StoreError{
				Op:   "catalog.add",
				Kind: "product",
				ID:   p.ID,
				Err:  core.ErrProductAlreadyExists,
			}
		}
	}
	c.products = append(c.products, p)
	c.mu.Unlock()

	c.logger.Info("Product added", map[string]interface{}{
		"operation":  "catalog_add",
		"product_id": p.ID,
		"category":   string(p.Category),
	})
	c.notify()
	return p, nil
}

// Update replaces the product with the same ID
func (c *Catalog) Update(p Product) error {
	if err := validate(p); err != nil {
		return err
	}

	c.mu.Lock()
	found := false
	for i, existing := range c.products {
		if existing.ID == p.ID {
			c.products[i] = p
			found = true
			break
		}
	}
	c.mu.Unlock()

	if !found {
		return &core.StoreError{
			Op:   "catalog.update",
			Kind: "product",
			ID:   p.ID,
			Err:  core.ErrProductNotFound,
		}
	}

	c.logger.Info("Product updated", map[string]interface{}{
		"operation":  "catalog_update",
		"product_id": p.ID,
	})
	c.notify()
	return nil
}

// Delete removes the product with the given ID
func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	found := false
	for i, existing := range c.products {
		if existing.ID == id {
			c.products = append(c.products[:i], c.products[i+1:]...)
			found = true
			break
		}
	}
	c.mu.Unlock()

	if !found {
		return &core.StoreError{
			Op:   "catalog.delete",
			Kind: "product",
			ID:   id,
			Err:  core.ErrProductNotFound,
		}
	}

	c.logger.Info("Product deleted", map[string]interface{}{
		"operation":  "catalog_delete",
		"product_id": id,
	})
	c.notify()
	return nil
}

// Filter returns products matching a category and a search query. The
// category CategoryAll matches everything; the query is a case-insensitive
// substring match over name and description.
func (c *Catalog) Filter(category, query string) []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	needle := strings.ToLower(query)
	var out []Product
	for _, p := range c.products {
		if category != CategoryAll && category != "" && string(p.Category) != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Promotions returns products whose original price exceeds the current one
func (c *Catalog) Promotions() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Product
	for _, p := range c.products {
		if p.OnPromotion() {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) notify() {
	c.mu.RLock()
	subs := make([]func(), len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

func validate(p Product) error {
	if p.Name == "" {
		return fmt.Errorf("product name must not be empty")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}
	if p.Category != "" && !p.Category.Valid() {
		return fmt.Errorf("unknown product category %q", p.Category)
	}
	return nil
}
