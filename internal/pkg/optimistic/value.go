package optimistic

import (
	"context"
	"sync"
)

// Value is a concurrency-safe cell holding a scalar piece of state
type Value[V any] struct {
	mu sync.RWMutex
	v  V
}

// NewValue creates a cell holding v
func NewValue[V any](v V) *Value[V] {
	return &Value[V]{v: v}
}

// Get returns the current value
func (c *Value[V]) Get() V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v
}

// Set replaces the current value
func (c *Value[V]) Set(v V) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// Swap replaces the current value and returns the previous one
func (c *Value[V]) Swap(v V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.v
	c.v = v
	return prev
}

// Apply shows next immediately, persists it and settles the cell on either
// the canonical value returned by persist or the snapshot taken before the swap.
func Apply[K comparable, V any](ctx context.Context, c *Controller[K], key K, cell *Value[V], next V, persist func(context.Context) (V, bool, error)) Outcome[V] {
	var snapshot V
	return Run(ctx, c, Mutation[K, V]{
		Key:      key,
		Apply:    func() { snapshot = cell.Swap(next) },
		Persist:  persist,
		Commit:   cell.Set,
		Rollback: func() { cell.Set(snapshot) },
		View:     cell.Get,
	})
}
