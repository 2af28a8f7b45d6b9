package engine

import (
	"github.com/roach88/classier/internal/config"
)

// resolve builds cls.template and cls.statics from the declaration d.
// d is the factory's private copy and is consumed.
func (rt *Runtime) resolve(cls *Class, d *Record, st config.Settings) {
	parent := cls.parent

	var tpl *Object
	switch {
	case parent == nil:
		tpl = rt.newObject(nil)
	case parent.deep:
		tpl = rt.createDeep(parent.template)
	default:
		tpl = rt.newObject(parent.template)
	}
	tpl.class = cls
	tpl.template = true
	cls.template = tpl

	cls.statics = rt.resolveStatics(cls, d, st)
	mixins := rt.mixinSources(cls, d.Lookup(keyInclude))

	for _, key := range []string{keyClassName, keyExtends, keyBaseClass, keyInclude, keySettings} {
		d.Delete(key)
	}

	initName := keyInit
	if !d.Has(keyInit) {
		initName = keyAltInit
	}
	for _, f := range d.Fields() {
		v := f.Value
		if m, ok := v.(*Method); ok && !m.superAlias && f.Key != keySuper && f.Key != keyAltSuper {
			skip := f.Key == initName &&
				st.SkipLifecycleCleanupWhenSafe &&
				!initNeedsCleaning(m.source, st)
			v = wrap(f.Key, m, cls, inheritedMethod(parent, f.Key), skip)
		} else {
			// Templates never alias the declaration's lists and records.
			v = Clone(v)
		}
		tpl.define(f.Key, plainSlot(v))
	}

	for _, src := range mixins {
		// Nor a mixin's, which may be another class's template.
		if failed := rt.restrictedMerge(tpl, cloneFields(src)); failed > 0 {
			rt.logger.Debug("mixin members skipped", "class", cls.name, "count", failed)
		}
	}

	tpl.define(keyConstructor, plainSlot(cls))
	if st.AltSyntaxCompatible {
		tpl.define(keyClassRef, plainSlot(cls))
	}
}

// resolveStatics propagates the parent's statics that the root class does
// not define, then merges the declaration's static blocks on top.
func (rt *Runtime) resolveStatics(cls *Class, d *Record, st config.Settings) *Record {
	statics := NewRecord()
	if p := cls.parent; p != nil {
		for _, f := range p.statics.Fields() {
			if rt.root != nil && rt.root.statics.Has(f.Key) {
				continue
			}
			statics.Set(f.Key, f.Value)
		}
	}

	var blocks []string
	if st.LegacySyntaxCompatible {
		blocks = append(blocks, keyStatic)
	}
	if st.AltSyntaxCompatible {
		blocks = append(blocks, keyClassVars)
	}
	for _, key := range blocks {
		v, ok := d.Get(key)
		if !ok {
			continue
		}
		d.Delete(key)
		block, isRecord := v.(*Record)
		if !isRecord {
			rt.logger.Debug("ignoring non-record static block", "class", cls.name, "key", key, "type", TypeName(v))
			continue
		}
		for _, f := range block.Fields() {
			statics.Set(f.Key, f.Value)
		}
	}
	return statics
}

// mixinSources flattens __include__ into member lists. A source is a
// record, an object (its enumerable members) or a class (its template's
// enumerable members).
func (rt *Runtime) mixinSources(cls *Class, include Value) [][]Field {
	var items []Value
	switch v := include.(type) {
	case Undefined, Null:
		return nil
	case *List:
		items = v.Items()
	default:
		items = []Value{v}
	}

	var out [][]Field
	for _, item := range items {
		switch src := item.(type) {
		case *Record:
			out = append(out, src.Fields())
		case *Object:
			out = append(out, enumerableFields(src))
		case *Class:
			out = append(out, enumerableFields(src.template))
		default:
			rt.logger.Debug("ignoring mixin source", "class", cls.name, "type", TypeName(item))
		}
	}
	return out
}

// cloneFields copies the field values with one cloner, so structure shared
// between fields stays shared in the copy.
func cloneFields(fields []Field) []Field {
	c := newCloner()
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Key: f.Key, Value: c.clone(f.Value)}
	}
	return out
}

func enumerableFields(o *Object) []Field {
	var out []Field
	o.enumerate(func(name string, _ *Object, s *slot) bool {
		out = append(out, Field{Key: name, Value: s.value})
		return true
	})
	return out
}

// inheritedMethod returns the parent template's method named name, the
// super of a method declared under that name.
func inheritedMethod(parent *Class, name string) *Method {
	if parent == nil {
		return nil
	}
	_, s := parent.template.lookup(name)
	if s == nil || s.kind == slotShadow {
		return nil
	}
	m, _ := s.value.(*Method)
	return m
}
