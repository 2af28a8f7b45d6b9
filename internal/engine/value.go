package engine

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface over every value a member can hold.
//
// Scalars: Undefined, Null, Bool, Int, Float, String.
// Structured (reference semantics, cloned by deep classes): *List, *Record.
// Shared references (never cloned): *Method, *Object, *Class.
type Value interface {
	value() // Sealed
}

// Undefined is the value of an absent member.
type Undefined struct{}

// Null is an explicit empty value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Int is an integer value.
type Int int64

// Float is a floating point value.
type Float float64

// String is a string value.
type String string

func (Undefined) value() {}
func (Null) value()      {}
func (Bool) value()      {}
func (Int) value()       {}
func (Float) value()     {}
func (String) value()    {}
func (*List) value()     {}
func (*Record) value()   {}
func (*Method) value()   {}
func (*Object) value()   {}
func (*Class) value()    {}

// noInitMarker is the internal sentinel that makes a constructor return the
// bare instance. Only this package can produce one.
type noInitMarker struct{}

func (noInitMarker) value() {}

var noInit Value = noInitMarker{}

// IsStructured reports whether v is a list or record.
func IsStructured(v Value) bool {
	switch v.(type) {
	case *List, *Record:
		return true
	default:
		return false
	}
}

// IsUndefined reports whether v is Undefined (or a nil interface).
func IsUndefined(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Undefined)
	return ok
}

// Truthy follows the usual loose truthiness rules.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil, Undefined, Null:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0 && !math.IsNaN(float64(x))
	case String:
		return x != ""
	default:
		return true
	}
}

// TypeName returns a short name for the kind of v.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case *List:
		return "list"
	case *Record:
		return "record"
	case *Method:
		return "method"
	case *Object:
		return "object"
	case *Class:
		return "class"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Equal compares two values. Lists and records compare structurally,
// numbers compare across Int and Float, references compare by identity.
func Equal(a, b Value) bool {
	if a == nil {
		a = Undefined{}
	}
	if b == nil {
		b = Undefined{}
	}
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return float64(x) == float64(y)
		}
		return false
	case Float:
		switch y := b.(type) {
		case Int:
			return float64(x) == float64(y)
		case Float:
			return x == y
		}
		return false
	case *List:
		y, ok := b.(*List)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		if x.Len() != y.Len() {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Record:
		y, ok := b.(*Record)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		if x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !Equal(x.vals[k], yv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Inspect renders v for diagnostics and CLI output.
func Inspect(v Value) string {
	switch x := v.(type) {
	case nil, Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(x))
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return strconv.FormatFloat(float64(x), 'g', -1, 64)
	case String:
		return strconv.Quote(string(x))
	case *List:
		return x.String()
	case *Record:
		return x.String()
	case *Method:
		return x.String()
	case *Object:
		return x.String()
	case *Class:
		return x.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
