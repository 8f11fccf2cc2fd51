package statistic

import "iter"

// Counter counts occurrences per key and remembers the order in which keys were first seen.
// It is not safe for concurrent use; a Counter is owned by the pass that fills it.
type Counter[K comparable] struct {
	counts map[K]uint64
	order  []K
	total  uint64
}

// NewCounter creates an empty Counter.
func NewCounter[K comparable]() *Counter[K] {
	return &Counter[K]{counts: make(map[K]uint64)}
}

// Inc adds one occurrence of key.
func (c *Counter[K]) Inc(key K) {
	c.Add(key, 1)
}

// Add adds n occurrences of key. A key added with n == 0 is still recorded as seen.
func (c *Counter[K]) Add(key K, n uint64) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
	c.total += n
}

// Get returns the count for key, 0 if it was never seen.
func (c *Counter[K]) Get(key K) uint64 {
	return c.counts[key]
}

// Len returns the number of distinct keys.
func (c *Counter[K]) Len() int {
	return len(c.order)
}

// Total returns the sum of all counts.
func (c *Counter[K]) Total() uint64 {
	return c.total
}

// Keys returns the keys in first-seen order.
func (c *Counter[K]) Keys() []K {
	keys := make([]K, len(c.order))
	copy(keys, c.order)
	return keys
}

// All iterates over (key, count) pairs in first-seen order.
func (c *Counter[K]) All() iter.Seq2[K, uint64] {
	return func(yield func(K, uint64) bool) {
		for _, k := range c.order {
			if !yield(k, c.counts[k]) {
				return
			}
		}
	}
}
