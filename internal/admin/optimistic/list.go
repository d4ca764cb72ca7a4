package optimistic

import "github.com/google/uuid"

// Item pairs a draft element with the opaque key assigned when it entered the draft.
type Item[T any] struct {
	Key   string
	Value T
}

// List is the editable draft of a list attribute. Elements are addressable by
// position (as rendered) or by their opaque key. None of the operations touch the network.
type List[T any] struct {
	items  []Item[T]
	newKey func() string
}

// NewList constructs a draft seeded with values.
func NewList[T any](values []T) *List[T] {
	l := &List[T]{newKey: uuid.NewString}
	l.Set(values)
	return l
}

// Set replaces the whole draft. Every element receives a fresh key.
func (l *List[T]) Set(values []T) {
	items := make([]Item[T], 0, len(values))
	for _, v := range values {
		items = append(items, Item[T]{Key: l.key(), Value: v})
	}
	l.items = items
}

// UpdateAt replaces the element at index. Out-of-range indices are ignored.
func (l *List[T]) UpdateAt(index int, value T) bool {
	if index < 0 || index >= len(l.items) {
		return false
	}
	l.items[index].Value = value
	return true
}

// PatchAt applies fn to the element at index. Out-of-range indices are ignored.
func (l *List[T]) PatchAt(index int, fn func(*T)) bool {
	if fn == nil || index < 0 || index >= len(l.items) {
		return false
	}
	fn(&l.items[index].Value)
	return true
}

// AppendEmpty appends the zero value of T and returns its key.
func (l *List[T]) AppendEmpty() string {
	var zero T
	key := l.key()
	l.items = append(l.items, Item[T]{Key: key, Value: zero})
	return key
}

// RemoveAt drops the element at index. Out-of-range indices are ignored.
func (l *List[T]) RemoveAt(index int) bool {
	if index < 0 || index >= len(l.items) {
		return false
	}
	next := make([]Item[T], 0, len(l.items)-1)
	next = append(next, l.items[:index]...)
	next = append(next, l.items[index+1:]...)
	l.items = next
	return true
}

// IndexOf returns the current position of key, or -1.
func (l *List[T]) IndexOf(key string) int {
	for i, item := range l.items {
		if item.Key == key {
			return i
		}
	}
	return -1
}

// Update replaces the element identified by key.
func (l *List[T]) Update(key string, value T) bool {
	return l.UpdateAt(l.IndexOf(key), value)
}

// Patch applies fn to the element identified by key.
func (l *List[T]) Patch(key string, fn func(*T)) bool {
	return l.PatchAt(l.IndexOf(key), fn)
}

// Remove drops the element identified by key.
func (l *List[T]) Remove(key string) bool {
	return l.RemoveAt(l.IndexOf(key))
}

// Len returns the number of draft elements.
func (l *List[T]) Len() int {
	return len(l.items)
}

// Values returns a copy of the draft values in display order.
func (l *List[T]) Values() []T {
	out := make([]T, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item.Value)
	}
	return out
}

// Items returns a copy of the keyed draft elements.
func (l *List[T]) Items() []Item[T] {
	return append([]Item[T](nil), l.items...)
}

func (l *List[T]) key() string {
	if l.newKey == nil {
		l.newKey = uuid.NewString
	}
	return l.newKey()
}
