package logistics

import (
	"context"

	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
)

// collection is one persisted entity list. Callers hold the store lock.
type collection[T any] struct {
	key   string
	items []T
	id    func(T) string
	clone func(T) T
}

type persistable interface {
	storageKey() string
	save(ctx context.Context, a kv.Adapter) error
}

func newCollection[T any](key string, id func(T) string, clone func(T) T) *collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &collection[T]{key: key, id: id, clone: clone}
}

// load replaces the items with the persisted list. keep may normalise an
// item in place and returns false to drop it.
func (c *collection[T]) load(ctx context.Context, a kv.Adapter, keep func(*T) bool) {
	loaded := kv.Load(ctx, a, c.key, []T{})
	c.items = c.items[:0]
	for i := range loaded {
		if keep != nil && !keep(&loaded[i]) {
			continue
		}
		c.items = append(c.items, loaded[i])
	}
}

func (c *collection[T]) storageKey() string { return c.key }

func (c *collection[T]) save(ctx context.Context, a kv.Adapter) error {
	items := c.items
	if items == nil {
		items = []T{}
	}
	return kv.Save(ctx, a, c.key, items)
}

func (c *collection[T]) index(id string) int {
	for i, item := range c.items {
		if c.id(item) == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) indexFunc(match func(T) bool) int {
	for i, item := range c.items {
		if match(item) {
			return i
		}
	}
	return -1
}

func (c *collection[T]) get(id string) (T, bool) {
	if i := c.index(id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) find(match func(T) bool) (T, bool) {
	if i := c.indexFunc(match); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) exists(match func(T) bool) bool {
	return c.indexFunc(match) >= 0
}

func (c *collection[T]) filter(match func(T) bool) []T {
	out := make([]T, 0)
	for _, item := range c.items {
		if match == nil || match(item) {
			out = append(out, c.clone(item))
		}
	}
	return out
}

func (c *collection[T]) all() []T {
	return c.filter(nil)
}

func (c *collection[T]) insert(item T) {
	c.items = append(c.items, item)
}

func (c *collection[T]) set(i int, item T) {
	c.items[i] = item
}

func (c *collection[T]) at(i int) T {
	return c.clone(c.items[i])
}

func (c *collection[T]) removeAt(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}

func (c *collection[T]) replace(items []T) {
	c.items = items
}
