package engine

import (
	"regexp"
	"slices"

	"github.com/roach88/classier/internal/config"
)

// construct creates an instance of cls and runs its lifecycle.
//
// A trailing noInit sentinel returns the bare instance. Otherwise init
// (legacy syntax) and __init__ (alt syntax) run with args, and a trailing
// record is merged onto the instance when trailing properties are allowed.
func (rt *Runtime) construct(cls *Class, args []Value, fr *frame) (*Object, error) {
	st := rt.cfg.Current()
	o := rt.instantiate(cls)

	var last Value
	if n := len(args); n > 0 {
		last = args[n-1]
	}
	if _, ok := last.(noInitMarker); ok {
		return o, nil
	}

	if st.LegacySyntaxCompatible {
		if err := rt.runInitializer(o, keyInit, args, fr); err != nil {
			return nil, err
		}
	}
	if st.AltSyntaxCompatible {
		if err := rt.runInitializer(o, keyAltInit, args, fr); err != nil {
			return nil, err
		}
	}

	if props, ok := last.(*Record); ok && st.AllowTrailingPropsArg && cls.props {
		rt.restrictedMerge(o, props.Fields())
	}
	return o, nil
}

func (rt *Runtime) runInitializer(o *Object, name string, args []Value, fr *frame) error {
	v, err := rt.get(o, name, fr)
	if err != nil {
		return err
	}
	m, ok := v.(*Method)
	if !ok {
		if !IsUndefined(v) {
			rt.logger.Debug("initializer is not a method", "class", o.className(), "member", name, "type", TypeName(v))
		}
		return nil
	}
	_, err = rt.call(m, o, nil, args, fr)
	return err
}

// clean re-installs own plain prefixed members of o as guarded slots, or
// as shadows when an ancestor's method created a private member. It runs
// after every wrapped method, retrofitting the guard onto state the method
// created.
func (rt *Runtime) clean(o *Object, owner *Class) {
	st := rt.cfg.Current()
	if !st.EnforceVisibility {
		return
	}
	if owner == nil {
		owner = o.class
	}

	restore := rt.trust()
	defer restore()

	for _, name := range slices.Clone(o.order) {
		s := o.slots[name]
		if s.kind != slotPlain {
			continue
		}
		vis, guarded := classify(name, st)
		if !guarded {
			continue
		}
		if vis == VisibilityPrivate && owner != o.class {
			// Private state an ancestor's method created stays the ancestor's.
			o.define(name, shadowSlot(owner, s.value))
			continue
		}
		o.define(name, &slot{value: s.value, kind: slotGuarded, visibility: vis, owner: owner})
	}
}

// initNeedsCleaning reports whether an initializer's source may assign a
// prefixed member through this.<prefix> or this["<prefix>. Without source
// text the answer is always yes.
func initNeedsCleaning(src string, st config.Settings) bool {
	if src == "" {
		return true
	}
	for _, prefix := range []string{st.PrivatePrefix, st.ProtectedPrefix} {
		quoted := regexp.QuoteMeta(prefix)
		dot := regexp.MustCompile(`this\s*\.\s*` + quoted)
		index := regexp.MustCompile(`this\s*\[\s*["']` + quoted)
		if dot.MatchString(src) || index.MatchString(src) {
			return true
		}
	}
	return false
}
