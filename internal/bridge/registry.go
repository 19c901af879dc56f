package bridge

import (
	"sort"
	"sync"

	"tradebridge/internal/domain"
)

// Registry is the authoritative in-memory store of order records for a
// session. Entries are never deleted; cancellation is a status change, not a
// removal. All mutation goes through Update so no caller ever holds a live
// pointer into the map.
type Registry struct {
	mu     sync.RWMutex
	orders map[int64]*domain.Order
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		orders: make(map[int64]*domain.Order),
	}
}

// Put inserts an order. The registry stores its own copy.
func (r *Registry) Put(o domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := o
	r.orders[o.ID] = &stored
}

// Get returns a copy of the order with the given id, if present.
func (r *Registry) Get(id int64) (domain.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// Update applies fn to the stored order under the write lock and returns a
// copy of the result. The boolean reports whether the id was present.
func (r *Registry) Update(id int64, fn func(*domain.Order)) (domain.Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	fn(o)
	return *o, true
}

// Snapshot returns copies of all orders, sorted by id.
func (r *Registry) Snapshot() []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of orders in the registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
