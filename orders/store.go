package orders

import (
	"sync"

	"github.com/olprint/storefront/core"
)

// Store is the in-memory order history
type Store struct {
	mu     sync.RWMutex
	orders []Order
	logger core.Logger
}

// NewStore creates a store preloaded with the given orders
func NewStore(logger core.Logger, orders ...Order) *Store {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	s := &Store{logger: logger}
	s.orders = append(s.orders, orders...)
	return s
}

// List returns all orders, newest first as seeded
func (s *Store) List() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Get returns the order with the given ID
func (s *Store) Get(id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, &core.StoreError{
		Op:   "orders.get",
		Kind: "order",
		ID:   id,
		Err:  core.ErrOrderNotFound,
	}
}

// UpdateStatus moves an order along the status progression and refreshes
// its follow-up action. Transitions outside the progression are rejected.
func (s *Store) UpdateStatus(id string, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.orders {
		if o.ID != id {
			continue
		}
		if !canTransition(o.Status, to) {
			return &core.StoreError{
				Op:      "orders.update_status",
				Kind:    "order",
				ID:      id,
				Message: string(o.Status) + " -> " + string(to),
				Err:     core.ErrInvalidStatusChange,
			}
		}
		s.orders[i].Status = to
		s.orders[i].Action = actionFor(to)
		s.logger.Info("Order status changed", map[string]interface{}{
			"operation": "order_status_change",
			"order_id":  id,
			"from":      string(o.Status),
			"to":        string(to),
		})
		return nil
	}

	return &core.StoreError{
		Op:   "orders.update_status",
		Kind: "order",
		ID:   id,
		Err:  core.ErrOrderNotFound,
	}
}

// Cancel cancels an order that is still being processed
func (s *Store) Cancel(id string) error {
	return s.UpdateStatus(id, StatusCancelled)
}
