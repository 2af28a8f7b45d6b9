package engine

// needsDeepCopy decides the instantiation strategy of a template: any
// structured member, enumerable, guarded or shadowed, except the control
// members, means instances need their own copies.
func needsDeepCopy(tpl *Object) bool {
	deep := false
	tpl.resolved(func(name string, _ *Object, s *slot) bool {
		if _, ok := controlMembers[name]; ok {
			return true
		}
		if s.kind == slotPlain && !s.enumerable {
			return true
		}
		if IsStructured(s.value) {
			deep = true
			return false
		}
		return true
	})
	return deep
}

// createDeep returns an object delegating to proto with own clones of
// every structured member proto resolves, guarded and shadow ones
// included. Copied slots keep their kind, visibility and owner.
func (rt *Runtime) createDeep(proto *Object) *Object {
	o := rt.newObject(proto)
	c := newCloner()
	proto.resolved(func(name string, _ *Object, s *slot) bool {
		if !IsStructured(s.value) {
			return true
		}
		o.define(name, &slot{
			value:      c.clone(s.value),
			kind:       s.kind,
			enumerable: s.enumerable,
			visibility: s.visibility,
			owner:      s.owner,
		})
		return true
	})
	return o
}

// instantiate creates the bare instance of cls with its strategy.
func (rt *Runtime) instantiate(cls *Class) *Object {
	var o *Object
	if cls.deep {
		o = rt.createDeep(cls.template)
	} else {
		o = rt.newObject(cls.template)
	}
	o.class = cls
	return o
}
