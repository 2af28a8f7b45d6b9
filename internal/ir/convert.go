package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/classier/internal/engine"
)

// Tag keys for values without a JSON shape.
const (
	TagUndefined = "$undefined"
	TagFn        = "$fn"
	TagClass     = "$class"
	TagObject    = "$object"
)

// FromValue converts an engine value. A top-level object is expanded to
// its public data members (methods and class references are left out);
// objects nested inside it are encoded by reference. Cyclic lists and
// records are an error.
func FromValue(v engine.Value) (IRValue, error) {
	c := &converter{inProgress: make(map[any]bool)}
	return c.value(v, true)
}

type converter struct {
	inProgress map[any]bool
}

func (c *converter) value(v engine.Value, expand bool) (IRValue, error) {
	switch x := v.(type) {
	case nil, engine.Undefined:
		return NewIRObject(O(TagUndefined, IRBool(true))), nil
	case engine.Null:
		return IRNull{}, nil
	case engine.Bool:
		return IRBool(x), nil
	case engine.Int:
		return IRInt(x), nil
	case engine.Float:
		return fromFloat(float64(x))
	case engine.String:
		return IRString(x), nil
	case *engine.List:
		if c.inProgress[x] {
			return nil, fmt.Errorf("cyclic list")
		}
		c.inProgress[x] = true
		defer delete(c.inProgress, x)

		arr := make(IRArray, 0, x.Len())
		for i, item := range x.Items() {
			iv, err := c.value(item, false)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, iv)
		}
		return arr, nil
	case *engine.Record:
		if c.inProgress[x] {
			return nil, fmt.Errorf("cyclic record")
		}
		c.inProgress[x] = true
		defer delete(c.inProgress, x)

		obj := make(IRObject, x.Len())
		for _, f := range x.Fields() {
			iv, err := c.value(f.Value, false)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", f.Key, err)
			}
			obj[f.Key] = iv
		}
		return obj, nil
	case *engine.Method:
		if x.Source() != "" {
			return NewIRObject(O(TagFn, IRString(x.Source()))), nil
		}
		return NewIRObject(O(TagFn, IRString(x.Name()))), nil
	case *engine.Class:
		return NewIRObject(O(TagClass, IRString(x.Name()))), nil
	case *engine.Object:
		return c.object(x, expand)
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

func (c *converter) object(o *engine.Object, expand bool) (IRValue, error) {
	obj := NewIRObject(O(TagObject, IRString(o.ID())))
	if o.Class() != nil {
		obj["class"] = IRString(o.Class().Name())
	}
	if !expand {
		return obj, nil
	}

	members := IRObject{}
	for _, name := range o.Keys() {
		v, err := o.Get(name)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		switch v.(type) {
		case *engine.Method, *engine.Class:
			continue
		}
		iv, err := c.value(v, false)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		members[name] = iv
	}
	obj["members"] = members
	return obj, nil
}

func fromFloat(f float64) (IRValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return IRInt(int64(f)), nil
	}
	return IRFloat(f), nil
}

// ToValue converts an IRValue back to a fresh engine value. Tagged objects
// are not interpreted.
func ToValue(v IRValue) engine.Value {
	switch x := v.(type) {
	case nil, IRNull:
		return engine.Null{}
	case IRBool:
		return engine.Bool(x)
	case IRInt:
		return engine.Int(x)
	case IRFloat:
		return engine.Float(x)
	case IRString:
		return engine.String(x)
	case IRArray:
		l := engine.NewList()
		for _, item := range x {
			l.Push(ToValue(item))
		}
		return l
	case IRObject:
		r := engine.NewRecord()
		for _, k := range x.SortedKeys() {
			r.Set(k, ToValue(x[k]))
		}
		return r
	default:
		return engine.Undefined{}
	}
}

// DecodeJSON parses JSON text into engine values. Object key order is
// kept; integral numbers become Int and others Float.
func DecodeJSON(data []byte) (engine.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeToken(dec)
	if err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode JSON: trailing data")
	}
	return v, nil
}

func decodeToken(dec *json.Decoder) (engine.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return engine.Null{}, nil
	case bool:
		return engine.Bool(t), nil
	case string:
		return engine.String(t), nil
	case json.Number:
		s := string(t)
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return engine.Int(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return engine.Float(f), nil
	case json.Delim:
		switch t {
		case '[':
			l := engine.NewList()
			for dec.More() {
				item, err := decodeToken(dec)
				if err != nil {
					return nil, err
				}
				l.Push(item)
			}
			_, err := dec.Token()
			return l, err
		case '{':
			r := engine.NewRecord()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				v, err := decodeToken(dec)
				if err != nil {
					return nil, err
				}
				r.Set(key, v)
			}
			_, err := dec.Token()
			return r, err
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
