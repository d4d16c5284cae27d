package store

import (
	"sync"

	"github.com/tiendabot/backend/internal/domain"
)

// MemoryOrderStore is a thread-safe in-memory order store keyed by
// customer identifier. Orders are copied on the way in and out so no
// caller shares mutable state with the store.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewMemoryOrderStore creates a new in-memory order store
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]*domain.Order)}
}

// Get returns a copy of the customer's order.
func (s *MemoryOrderStore) Get(customerID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[customerID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

// Save stores a copy of the order under its customer id.
func (s *MemoryOrderStore) Save(order *domain.Order) error {
	if order == nil || order.CustomerID == "" {
		return domain.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.CustomerID] = copyOrder(order)
	return nil
}

// Delete removes the customer's order. Deleting a missing order is a no-op.
func (s *MemoryOrderStore) Delete(customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, customerID)
	return nil
}

// Size returns the number of stored orders (for debugging/monitoring)
func (s *MemoryOrderStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func copyOrder(order *domain.Order) *domain.Order {
	dup := *order
	dup.Items = make([]domain.LineItem, len(order.Items))
	copy(dup.Items, order.Items)
	return &dup
}
