package service

import (
	"sync"

	"github.com/brickworks/console/internal/core/domain"
)

// OrderCache is the read-through copy of the backend order list. Every value
// going in or out is deep-copied, so callers never share slices with it.
type OrderCache struct {
	mu     sync.RWMutex
	orders []domain.Order
}

func NewOrderCache() *OrderCache {
	return &OrderCache{}
}

// Replace swaps in a fresh order list.
func (c *OrderCache) Replace(orders []domain.Order) {
	cp := domain.CloneOrders(orders)
	c.mu.Lock()
	c.orders = cp
	c.mu.Unlock()
}

// Snapshot returns an independent copy of the whole list.
func (c *OrderCache) Snapshot() []domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.CloneOrders(c.orders)
}

// Restore puts a snapshot back verbatim, discarding anything written since.
func (c *OrderCache) Restore(snapshot []domain.Order) {
	c.Replace(snapshot)
}

func (c *OrderCache) Find(orderID int64) (domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, o := range c.orders {
		if o.ID == orderID {
			return o.Clone(), true
		}
	}
	return domain.Order{}, false
}

// SetDelivered writes the delivered flag of one line, leaving everything else
// untouched. It reports whether the line was found.
func (c *OrderCache) SetDelivered(orderID, detailID int64, delivered bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.orders {
		if c.orders[i].ID != orderID {
			continue
		}
		if line := c.orders[i].Line(detailID); line != nil {
			line.Delivered = delivered
			return true
		}
		return false
	}
	return false
}

func (c *OrderCache) SetStatus(orderID int64, status domain.OrderStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.orders {
		if c.orders[i].ID == orderID {
			c.orders[i].Status = status
			return true
		}
	}
	return false
}
