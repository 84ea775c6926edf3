package maputil

import (
	"iter"
	"slices"
)

// OrderedMap keeps values in the order their keys were first added. Adding an existing key replaces its value
// but keeps its position.
type OrderedMap[T any] struct {
	keys []string
	// data - Do not expose, always go through Add and Get so that [keys] stays in sync.
	data map[string]T
}

func NewOrderedMap[T any]() *OrderedMap[T] {
	return &OrderedMap[T]{
		keys: []string{},
		data: make(map[string]T),
	}
}

func (o *OrderedMap[T]) Add(key string, value T) {
	if _, ok := o.data[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.data[key] = value
}

func (o *OrderedMap[T]) Get(key string) (T, bool) {
	val, ok := o.data[key]
	return val, ok
}

func (o *OrderedMap[T]) Len() int {
	return len(o.keys)
}

func (o *OrderedMap[T]) Keys() []string {
	return slices.Clone(o.keys)
}

// All returns an in-order iterator over key-value pairs.
func (o *OrderedMap[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, key := range o.keys {
			if !yield(key, o.data[key]) {
				return
			}
		}
	}
}

// Values returns an in-order iterator over the values.
func (o *OrderedMap[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, key := range o.keys {
			if !yield(o.data[key]) {
				return
			}
		}
	}
}
