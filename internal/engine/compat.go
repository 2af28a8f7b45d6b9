package engine

// Extend defines a subclass of c from decl ($extend in the alt syntax).
func (c *Class) Extend(decl *Record) *Class {
	d := decl.Copy()
	d.Set(keyExtends, c)
	return c.rt.DefineClass(d)
}

// WithData constructs an instance without running its initializers, merges
// props onto it and guards the prefixed members it received ($withData in
// the alt syntax).
func (c *Class) WithData(props *Record) (*Object, error) {
	o, err := c.rt.construct(c, []Value{noInit}, nil)
	if err != nil {
		return nil, err
	}
	if props != nil {
		c.rt.restrictedMerge(o, props.Fields())
	}
	c.rt.clean(o, c)
	return o, nil
}

// installCompatStatics adds the $extend and $withData statics, callable
// through Class.CallStatic and from scripts.
func installCompatStatics(cls *Class) {
	cls.statics.Set(staticExtend, NewMethod(staticExtend, func(c *Call) (Value, error) {
		decl, _ := c.Arg(0).(*Record)
		return c.Class().Extend(decl), nil
	}))
	cls.statics.Set(staticWithData, NewMethod(staticWithData, func(c *Call) (Value, error) {
		props, _ := c.Arg(0).(*Record)
		o, err := c.Class().WithData(props)
		if err != nil {
			return Undefined{}, err
		}
		return o, nil
	}))
}
