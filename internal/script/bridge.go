package script

import (
	"math"
	"strconv"

	"github.com/dop251/goja"

	"github.com/roach88/classier/internal/engine"
)

// maxSafeInt is the largest integer a float64 represents exactly.
const maxSafeInt = 1<<53 - 1

// objectBridge exposes an engine object. Every access goes through the
// innermost running call, so the guard sees the script's capability.
type objectBridge struct {
	h *Host
	o *engine.Object
}

func (b *objectBridge) Get(key string) goja.Value {
	v, err := b.h.call().GetFrom(b.o, key)
	if err != nil {
		b.h.throw(err)
	}
	if engine.IsUndefined(v) && !b.o.Has(key) {
		return nil
	}
	return b.h.member(v, b.o)
}

func (b *objectBridge) Set(key string, val goja.Value) bool {
	if err := b.h.call().SetOn(b.o, key, b.h.fromJS(val)); err != nil {
		b.h.throw(err)
	}
	return true
}

func (b *objectBridge) Has(key string) bool { return b.o.Has(key) }

func (b *objectBridge) Delete(key string) bool {
	if _, err := b.h.call().DeleteFrom(b.o, key); err != nil {
		b.h.throw(err)
	}
	return true
}

func (b *objectBridge) Keys() []string { return b.o.Keys() }

// listBridge exposes a list as a live array.
type listBridge struct {
	h *Host
	l *engine.List
}

func (b *listBridge) Len() int { return b.l.Len() }

func (b *listBridge) Get(idx int) goja.Value {
	if idx < 0 || idx >= b.l.Len() {
		return nil
	}
	return b.h.toJS(b.l.At(idx))
}

func (b *listBridge) Set(idx int, val goja.Value) bool {
	if idx < 0 {
		return false
	}
	b.l.Set(idx, b.h.fromJS(val))
	return true
}

func (b *listBridge) SetLen(n int) bool {
	b.l.SetLen(n)
	return true
}

// recordBridge exposes a record as a live object.
type recordBridge struct {
	h *Host
	r *engine.Record
}

func (b *recordBridge) Get(key string) goja.Value {
	v, ok := b.r.Get(key)
	if !ok {
		return nil
	}
	return b.h.toJS(v)
}

func (b *recordBridge) Set(key string, val goja.Value) bool {
	b.r.Set(key, b.h.fromJS(val))
	return true
}

func (b *recordBridge) Has(key string) bool { return b.r.Has(key) }

func (b *recordBridge) Delete(key string) bool {
	b.r.Delete(key)
	return true
}

func (b *recordBridge) Keys() []string { return b.r.Keys() }

type boundKey struct {
	m    *engine.Method
	recv *engine.Object
}

// toJS converts an engine value. Methods are bound to no receiver.
func (h *Host) toJS(v engine.Value) goja.Value {
	return h.member(v, nil)
}

// member converts a value read from recv. Methods are bound to recv.
func (h *Host) member(v engine.Value, recv *engine.Object) goja.Value {
	switch x := v.(type) {
	case nil, engine.Undefined:
		return goja.Undefined()
	case engine.Null:
		return goja.Null()
	case engine.Bool:
		return h.vm.ToValue(bool(x))
	case engine.Int:
		return h.vm.ToValue(int64(x))
	case engine.Float:
		return h.vm.ToValue(float64(x))
	case engine.String:
		return h.vm.ToValue(string(x))
	case *engine.List:
		return h.cached(x, x, func() *goja.Object {
			return h.vm.NewDynamicArray(&listBridge{h: h, l: x})
		})
	case *engine.Record:
		return h.cached(x, x, func() *goja.Object {
			return h.vm.NewDynamicObject(&recordBridge{h: h, r: x})
		})
	case *engine.Object:
		return h.cached(x, x, func() *goja.Object {
			return h.vm.NewDynamicObject(&objectBridge{h: h, o: x})
		})
	case *engine.Method:
		return h.cached(boundKey{m: x, recv: recv}, x, func() *goja.Object {
			return h.boundMethod(x, recv)
		})
	case *engine.Class:
		return h.cached(x, x, func() *goja.Object {
			return h.classFunc(x)
		})
	default:
		return goja.Undefined()
	}
}

func (h *Host) cached(key any, v engine.Value, build func() *goja.Object) goja.Value {
	if js, ok := h.bridged[key]; ok {
		return js
	}
	obj := build()
	h.bridged[key] = obj
	h.wrappers[obj] = v
	return obj
}

// boundMethod calls m with the bridged `this` when there is one, else with
// the receiver the method was read from.
func (h *Host) boundMethod(m *engine.Method, recv *engine.Object) *goja.Object {
	fn := func(call goja.FunctionCall) goja.Value {
		target := recv
		if this, ok := call.This.(*goja.Object); ok {
			if o, isObj := h.wrappers[this].(*engine.Object); isObj {
				target = o
			}
		}
		res, err := h.call().Apply(m, target, h.fromJSArgs(call.Arguments)...)
		if err != nil {
			h.throw(err)
		}
		return h.toJS(res)
	}
	return h.vm.ToValue(fn).ToObject(h.vm)
}

// classFunc returns a function that constructs an instance of cls when
// called (without `new`). Static members are snapshotted as properties.
func (h *Host) classFunc(cls *engine.Class) *goja.Object {
	fn := func(call goja.FunctionCall) goja.Value {
		o, err := h.call().New(cls, h.fromJSArgs(call.Arguments)...)
		if err != nil {
			h.throw(err)
		}
		return h.toJS(o)
	}
	obj := h.vm.ToValue(fn).ToObject(h.vm)
	for _, f := range cls.Statics().Fields() {
		if _, ok := f.Value.(*engine.Method); ok {
			name := f.Key
			_ = obj.Set(name, func(call goja.FunctionCall) goja.Value {
				res, err := h.call().CallStatic(cls, name, h.fromJSArgs(call.Arguments)...)
				if err != nil {
					h.throw(err)
				}
				return h.toJS(res)
			})
			continue
		}
		_ = obj.Set(f.Key, h.toJS(f.Value))
	}
	_ = obj.Set("className", cls.Name())
	return obj
}

func (h *Host) toJSArgs(args []engine.Value) []goja.Value {
	out := make([]goja.Value, len(args))
	for i, a := range args {
		out[i] = h.toJS(a)
	}
	return out
}

func (h *Host) fromJSArgs(args []goja.Value) []engine.Value {
	out := make([]engine.Value, len(args))
	for i, a := range args {
		out[i] = h.fromJS(a)
	}
	return out
}

// fromJS converts a JS value. Bridged values come back as the engine
// values they wrap; plain arrays and objects become new lists and records;
// other functions become script methods.
func (h *Host) fromJS(v goja.Value) engine.Value {
	if v == nil || goja.IsUndefined(v) {
		return engine.Undefined{}
	}
	if goja.IsNull(v) {
		return engine.Null{}
	}
	if obj, ok := v.(*goja.Object); ok {
		return h.fromObject(obj)
	}
	switch x := v.Export().(type) {
	case bool:
		return engine.Bool(x)
	case int64:
		return engine.Int(x)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) <= maxSafeInt {
			return engine.Int(int64(x))
		}
		return engine.Float(x)
	case string:
		return engine.String(x)
	default:
		return engine.String(v.String())
	}
}

func (h *Host) fromObject(obj *goja.Object) engine.Value {
	if ev, ok := h.wrappers[obj]; ok {
		return ev
	}
	if fn, ok := goja.AssertFunction(obj); ok {
		return engine.NewScriptMethod("anonymous", obj.String(), h.body("anonymous", fn))
	}
	if obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		l := engine.NewList()
		for i := 0; i < n; i++ {
			l.Push(h.fromJS(obj.Get(strconv.Itoa(i))))
		}
		return l
	}
	r := engine.NewRecord()
	for _, k := range obj.Keys() {
		r.Set(k, h.fromJS(obj.Get(k)))
	}
	return r
}
