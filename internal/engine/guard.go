package engine

import (
	"slices"
	"strings"

	"github.com/roach88/classier/internal/config"
)

// classify returns the visibility a member name gets under st, and whether
// it is guarded at all. Names ending in "__" are reserved for lifecycle and
// internal members and stay public, as does _super.
func classify(name string, st config.Settings) (Visibility, bool) {
	if !st.EnforceVisibility {
		return VisibilityPublic, false
	}
	if strings.HasSuffix(name, "__") || name == keySuper {
		return VisibilityPublic, false
	}
	if strings.HasPrefix(name, st.PrivatePrefix) {
		return VisibilityPrivate, true
	}
	if strings.HasPrefix(name, st.ProtectedPrefix) {
		return VisibilityProtected, true
	}
	return VisibilityPublic, false
}

// authorized reports whether fr may reach guarded members of o: the trusted
// flag is set, or a frame of the chain runs an enumerable member of o.
func (rt *Runtime) authorized(o *Object, fr *frame) bool {
	if rt.trusted {
		return true
	}
	for f := fr; f != nil; f = f.parent {
		if f.method != nil && o.hasMember(f.method) {
			return true
		}
	}
	return false
}

func (rt *Runtime) get(o *Object, name string, fr *frame) (Value, error) {
	if o == nil {
		return Undefined{}, newNoReceiver(name)
	}
	_, s := o.lookup(name)
	if s == nil || s.hiddenFrom(fr) {
		return Undefined{}, nil
	}
	if s.kind != slotPlain && !rt.authorized(o, fr) {
		return Undefined{}, &AccessDeniedError{Member: name, Visibility: s.visibility}
	}
	return s.value, nil
}

func (rt *Runtime) set(o *Object, name string, v Value, fr *frame) error {
	if o == nil {
		return newNoReceiver(name)
	}
	if v == nil {
		v = Undefined{}
	}
	holder, s := o.lookup(name)
	if s != nil && s.kind == slotShadow && !s.hiddenFrom(fr) {
		if !rt.authorized(o, fr) {
			return &AccessDeniedError{Member: name, Visibility: s.visibility, Write: true}
		}
		if holder == o {
			s.value = v
		} else {
			o.define(name, shadowSlot(s.owner, v))
		}
		return nil
	}
	if s != nil && s.kind == slotGuarded {
		if !rt.authorized(o, fr) {
			return &AccessDeniedError{Member: name, Visibility: s.visibility, Write: true}
		}
		if holder == o {
			s.value = v
			return nil
		}
		// Guarded state written through a subclass or instance becomes
		// the receiver's own guarded slot, not the shared template's.
		o.define(name, &slot{value: v, kind: slotGuarded, visibility: s.visibility, owner: s.owner})
		return nil
	}
	if s != nil && s.kind == slotPlain && holder == o {
		s.value = v
		return nil
	}
	o.define(name, plainSlot(v))
	return nil
}

func (rt *Runtime) deleteMember(o *Object, name string, fr *frame) (bool, error) {
	if o == nil {
		return false, newNoReceiver(name)
	}
	s, ok := o.slots[name]
	if !ok || s.hiddenFrom(fr) {
		return false, nil
	}
	if s.kind != slotPlain && !rt.authorized(o, fr) {
		return false, &AccessDeniedError{Member: name, Visibility: s.visibility, Write: true}
	}
	return o.remove(name), nil
}

// guardTemplate applies the guard to a freshly resolved template.
//
// Own prefixed members become guarded slots owned by cls. Private members
// the template would otherwise expose from an ancestor get an own shadow
// holding the ancestor's value, so a subclass never reads its parent's
// private state and the ancestor's methods never touch its template.
func (rt *Runtime) guardTemplate(cls *Class, st config.Settings) {
	if !st.EnforceVisibility {
		return
	}
	tpl := cls.template
	for _, name := range slices.Clone(tpl.order) {
		s := tpl.slots[name]
		switch {
		case s.kind == slotPlain:
			if vis, guarded := classify(name, st); guarded {
				tpl.define(name, &slot{value: s.value, kind: slotGuarded, visibility: vis, owner: cls})
			}
		case s.kind == slotGuarded && s.visibility == VisibilityPrivate && s.owner != cls:
			// Deep copy of a parent's private member.
			tpl.define(name, shadowSlot(s.owner, s.value))
		}
	}

	for cur := tpl.proto; cur != nil; cur = cur.proto {
		for _, name := range cur.order {
			if tpl.HasOwn(name) {
				continue
			}
			s := cur.slots[name]
			if s.kind == slotGuarded && s.visibility == VisibilityPrivate {
				tpl.define(name, shadowSlot(s.owner, s.value))
			}
		}
	}
}

// shadowSlot holds a private member of owner on a subclass template or
// instance. Only owner's methods see v.
func shadowSlot(owner *Class, v Value) *slot {
	return &slot{value: v, kind: slotShadow, visibility: VisibilityPrivate, owner: owner}
}

// hiddenFrom reports whether s is a shadow fr cannot see through.
func (s *slot) hiddenFrom(fr *frame) bool {
	return s.kind == slotShadow && !fr.runsMethodOf(s.owner)
}
