package engine

import (
	"slices"
	"strconv"
	"strings"
)

// List is an ordered sequence with reference semantics: every holder of a
// *List sees the same elements.
type List struct {
	items []Value
}

// NewList creates a list holding items.
func NewList(items ...Value) *List {
	return &List{items: slices.Clone(items)}
}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// At returns the element at i, or Undefined when out of range.
func (l *List) At(i int) Value {
	if i < 0 || i >= len(l.items) {
		return Undefined{}
	}
	return l.items[i]
}

// Set stores v at i, growing the list with Undefined as needed.
func (l *List) Set(i int, v Value) {
	if i < 0 {
		return
	}
	if i >= len(l.items) {
		l.SetLen(i + 1)
	}
	l.items[i] = v
}

// SetLen truncates or grows the list to n elements.
func (l *List) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	for len(l.items) < n {
		l.items = append(l.items, Undefined{})
	}
	l.items = l.items[:n]
}

// Push appends values and returns the new length.
func (l *List) Push(vs ...Value) int {
	l.items = append(l.items, vs...)
	return len(l.items)
}

// Items returns a copy of the elements.
func (l *List) Items() []Value {
	return slices.Clone(l.items)
}

func (l *List) String() string {
	parts := make([]string, len(l.items))
	for i, v := range l.items {
		parts[i] = Inspect(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Field is a key/value pair for ordered record construction.
type Field struct {
	Key   string
	Value Value
}

// F is a shorthand for Field.
// Example: NewRecord(F("x", Int(1)), F("name", String("cart")))
func F(key string, v Value) Field {
	return Field{Key: key, Value: v}
}

// Record is an insertion-ordered string-keyed mapping with reference
// semantics. Declarations, static blocks, mixins and trailing property
// arguments are all records.
type Record struct {
	keys []string
	vals map[string]Value
}

// NewRecord creates a record from fields in order. A repeated key keeps
// its first position and its last value.
func NewRecord(fields ...Field) *Record {
	r := &Record{vals: make(map[string]Value, len(fields))}
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Len returns the number of keys.
func (r *Record) Len() int { return len(r.keys) }

// Get returns the value for key.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Lookup returns the value for key, or Undefined.
func (r *Record) Lookup(key string) Value {
	if v, ok := r.vals[key]; ok {
		return v
	}
	return Undefined{}
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Set stores v under key. New keys are appended to the order.
func (r *Record) Set(key string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if v == nil {
		v = Undefined{}
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Delete removes key and reports whether it was present.
func (r *Record) Delete(key string) bool {
	if _, ok := r.vals[key]; !ok {
		return false
	}
	delete(r.vals, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	return slices.Clone(r.keys)
}

// Fields returns the key/value pairs in insertion order.
func (r *Record) Fields() []Field {
	out := make([]Field, len(r.keys))
	for i, k := range r.keys {
		out[i] = Field{Key: k, Value: r.vals[k]}
	}
	return out
}

// Copy returns a shallow copy: same values, independent key set.
func (r *Record) Copy() *Record {
	if r == nil {
		return NewRecord()
	}
	return NewRecord(r.Fields()...)
}

func (r *Record) String() string {
	parts := make([]string, len(r.keys))
	for i, k := range r.keys {
		parts[i] = strconv.Quote(k) + ": " + Inspect(r.vals[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
