package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/textnorm"
	"go.uber.org/zap"
)

// OrderService maintains per-customer running carts. State lives in the
// injected store; the service itself is stateless.
type OrderService struct {
	store  domain.OrderStore
	logger *zap.SugaredLogger
}

// NewOrderService creates a new order service
func NewOrderService(store domain.OrderStore, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		store:  store,
		logger: logger.Sugar(),
	}
}

// AddItem adds quantity units of a product to the customer's pending
// order, creating the order if needed. Adding a product already present
// (by description) merges into the existing line. The total is always
// recomputed from scratch.
func (s *OrderService) AddItem(customerID string, product domain.Product, quantity int) (*domain.Order, error) {
	if customerID == "" || product.Description == "" {
		return nil, domain.ErrInvalidRequest
	}
	if quantity < 1 {
		quantity = 1
	}

	order, err := s.store.Get(customerID)
	if err != nil {
		order = &domain.Order{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			Status:     domain.OrderPending,
			CreatedAt:  time.Now(),
		}
	}

	merged := false
	for i := range order.Items {
		if order.Items[i].Product.Description == product.Description {
			order.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		order.Items = append(order.Items, domain.LineItem{Product: product, Quantity: quantity})
	}

	order.RecomputeTotal()
	order.UpdatedAt = time.Now()

	if err := s.store.Save(order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.logger.Debugw("item added",
		"customerId", customerID,
		"product", product.Description,
		"quantity", quantity,
		"total", order.Total)

	return order, nil
}

// RemoveItem removes the line whose description matches (normalized
// substring) and recomputes the total.
func (s *OrderService) RemoveItem(customerID, productDescription string) (*domain.Order, error) {
	order, err := s.store.Get(customerID)
	if err != nil {
		return nil, err
	}

	target := textnorm.Normalize(productDescription)
	idx := -1
	for i, item := range order.Items {
		if textnorm.Normalize(item.Product.Description) == target {
			idx = i
			break
		}
	}
	if idx == -1 {
		for i, item := range order.Items {
			if target != "" && containsNormalized(item.Product.Description, target) {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		return nil, domain.ErrItemNotFound
	}

	order.Items = append(order.Items[:idx], order.Items[idx+1:]...)
	order.RecomputeTotal()
	order.UpdatedAt = time.Now()

	if err := s.store.Save(order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return order, nil
}

// Get returns the customer's current order.
func (s *OrderService) Get(customerID string) (*domain.Order, error) {
	return s.store.Get(customerID)
}

// Confirm marks the pending order confirmed and clears it from the
// store; the returned snapshot is what was confirmed.
func (s *OrderService) Confirm(customerID string) (*domain.Order, error) {
	order, err := s.store.Get(customerID)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	order.Status = domain.OrderConfirmed
	order.RecomputeTotal()
	order.UpdatedAt = time.Now()

	if err := s.store.Delete(customerID); err != nil {
		return nil, fmt.Errorf("clear order: %w", err)
	}

	s.logger.Infow("order confirmed",
		"customerId", customerID,
		"orderId", order.ID,
		"items", len(order.Items),
		"total", order.Total)

	return order, nil
}

// Cancel drops the customer's order entirely.
func (s *OrderService) Cancel(customerID string) error {
	if _, err := s.store.Get(customerID); err != nil {
		return err
	}
	return s.store.Delete(customerID)
}

// containsNormalized only considers needles longer than two characters
// so a stray "de" cannot remove an arbitrary line.
func containsNormalized(haystack, normalizedNeedle string) bool {
	return len(normalizedNeedle) > 2 && strings.Contains(textnorm.Normalize(haystack), normalizedNeedle)
}
