package ir

import (
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface over the canonical value shapes.
type IRValue interface {
	irValue()
}

// IRNull represents a JSON null.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer. Integral engine numbers are always IRInt.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a finite non-integral number.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// IRPair is a key/value pair for IRObject construction.
type IRPair struct {
	Key   string
	Value IRValue
}

// O is a shorthand for IRPair.
// Example: NewIRObject(O("class", IRString("Dog")), O("legs", IRInt(4)))
func O(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// NewIRObject creates an IRObject from pairs.
func NewIRObject(pairs ...IRPair) IRObject {
	obj := make(IRObject, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 which produces a different order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
