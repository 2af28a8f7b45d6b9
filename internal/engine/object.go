package engine

import (
	"slices"
)

type slotKind uint8

const (
	// slotPlain is an ordinary member.
	slotPlain slotKind = iota
	// slotGuarded is a private or protected member behind the guard.
	slotGuarded
	// slotShadow holds an inherited private member, visible only to the
	// methods of its owner.
	slotShadow
)

type slot struct {
	value      Value
	kind       slotKind
	enumerable bool
	visibility Visibility
	// owner is the declaring class of a guarded or shadow slot.
	owner *Class
}

func plainSlot(v Value) *slot {
	return &slot{value: v, kind: slotPlain, enumerable: true, visibility: VisibilityPublic}
}

// Object is a delegation-based object: members absent from the object are
// read from its proto. Class templates and instances are both Objects.
type Object struct {
	id    string
	proto *Object
	slots map[string]*slot
	order []string
	rt    *Runtime

	// class is the class that constructed this instance, or the class
	// this template belongs to.
	class    *Class
	template bool
}

// ID returns the object's identifier.
func (o *Object) ID() string { return o.id }

// Proto returns the object this one delegates to.
func (o *Object) Proto() *Object { return o.proto }

// Class returns the class handle that produced this object.
func (o *Object) Class() *Class { return o.class }

// IsTemplate reports whether o is a class template.
func (o *Object) IsTemplate() bool { return o.template }

// InstanceOf reports whether c's template is on o's delegation chain.
func (o *Object) InstanceOf(c *Class) bool {
	if c == nil {
		return false
	}
	for cur := o.proto; cur != nil; cur = cur.proto {
		if cur == c.template {
			return true
		}
	}
	return false
}

// Get reads a member from outside any method. Guarded members are denied.
// A nil receiver yields a NO_RECEIVER error, as do Set, Invoke and Delete.
func (o *Object) Get(name string) (Value, error) {
	if o == nil {
		return Undefined{}, newNoReceiver(name)
	}
	return o.rt.get(o, name, nil)
}

// Set writes a member from outside any method. Guarded members are denied.
func (o *Object) Set(name string, v Value) error {
	if o == nil {
		return newNoReceiver(name)
	}
	return o.rt.set(o, name, v, nil)
}

// Invoke calls a method member from outside any method.
func (o *Object) Invoke(name string, args ...Value) (Value, error) {
	if o == nil {
		return Undefined{}, newNoReceiver(name)
	}
	return o.rt.invoke(o, name, args, nil)
}

// Delete removes an own member from outside any method. Guarded members
// are denied.
func (o *Object) Delete(name string) (bool, error) {
	if o == nil {
		return false, newNoReceiver(name)
	}
	return o.rt.deleteMember(o, name, nil)
}

// Has reports whether name resolves to any slot on the delegation chain.
func (o *Object) Has(name string) bool {
	for cur := o; cur != nil; cur = cur.proto {
		if _, ok := cur.slots[name]; ok {
			return true
		}
	}
	return false
}

// HasOwn reports whether o holds an own slot named name.
func (o *Object) HasOwn(name string) bool {
	_, ok := o.slots[name]
	return ok
}

// Keys returns the enumerable member names, own first, then inherited.
func (o *Object) Keys() []string {
	var keys []string
	o.enumerate(func(name string, _ *Object, _ *slot) bool {
		keys = append(keys, name)
		return true
	})
	return keys
}

// OwnKeys returns the enumerable own member names.
func (o *Object) OwnKeys() []string {
	var keys []string
	for _, name := range o.order {
		if o.slots[name].enumerable {
			keys = append(keys, name)
		}
	}
	return keys
}

// Visibility reports how name resolves on o. ok is false when absent.
func (o *Object) Visibility(name string) (v Visibility, ok bool) {
	_, s := o.lookup(name)
	if s == nil {
		return "", false
	}
	return s.visibility, true
}

func (o *Object) String() string {
	name := o.className()
	if o.template {
		return name + ".template"
	}
	return name + "#" + o.id
}

func (o *Object) className() string {
	if o.class == nil {
		return "_"
	}
	return o.class.name
}

// define installs s as an own slot, replacing any existing one in place.
func (o *Object) define(name string, s *slot) {
	if _, ok := o.slots[name]; !ok {
		o.order = append(o.order, name)
	}
	o.slots[name] = s
}

// remove deletes an own slot.
func (o *Object) remove(name string) bool {
	if _, ok := o.slots[name]; !ok {
		return false
	}
	delete(o.slots, name)
	o.order = slices.DeleteFunc(o.order, func(k string) bool { return k == name })
	return true
}

// lookup resolves name along the delegation chain.
func (o *Object) lookup(name string) (*Object, *slot) {
	for cur := o; cur != nil; cur = cur.proto {
		if s, ok := cur.slots[name]; ok {
			return cur, s
		}
	}
	return nil, nil
}

// enumerate visits every enumerable member, own first, in insertion order.
// A name seen once is never visited again further up the chain, so a
// non-enumerable own slot hides an enumerable inherited one.
func (o *Object) enumerate(fn func(name string, holder *Object, s *slot) bool) {
	seen := make(map[string]struct{})
	for cur := o; cur != nil; cur = cur.proto {
		for _, name := range cur.order {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			s := cur.slots[name]
			if !s.enumerable {
				continue
			}
			if !fn(name, cur, s) {
				return
			}
		}
	}
}

// hasMember reports whether m is the value of an enumerable member of o.
func (o *Object) hasMember(m *Method) bool {
	found := false
	o.enumerate(func(_ string, _ *Object, s *slot) bool {
		if mm, ok := s.value.(*Method); ok && mm == m {
			found = true
			return false
		}
		return true
	})
	return found
}

// resolved visits the first slot of every name along the delegation chain,
// enumerable or not, own first.
func (o *Object) resolved(fn func(name string, holder *Object, s *slot) bool) {
	seen := make(map[string]struct{})
	for cur := o; cur != nil; cur = cur.proto {
		for _, name := range cur.order {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			if !fn(name, cur, cur.slots[name]) {
				return
			}
		}
	}
}
