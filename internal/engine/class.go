package engine

// Class is a class handle: the template instances delegate to or copy
// from, the static members, and the decisions made once at definition.
type Class struct {
	rt       *Runtime
	name     string
	parent   *Class
	template *Object
	statics  *Record

	// deep is the instantiation strategy: structural copy of the template
	// instead of plain delegation.
	deep bool
	// props is false when the declaration disabled the trailing
	// properties argument.
	props bool
}

// Name returns the debugging name. It never affects behavior.
func (c *Class) Name() string { return c.name }

// Parent returns the parent class, nil for the root class.
func (c *Class) Parent() *Class { return c.parent }

// Template returns the object every instance delegates to.
func (c *Class) Template() *Object { return c.template }

// Runtime returns the runtime that defined the class.
func (c *Class) Runtime() *Runtime { return c.rt }

// IsDeep reports whether instances are structural copies of the template.
func (c *Class) IsDeep() bool { return c.deep }

// AllowsTrailingProps reports whether the class accepts a trailing
// properties argument (subject to the runtime setting).
func (c *Class) AllowsTrailingProps() bool { return c.props }

// Statics returns the static members. The record is live: writes are seen
// by later reads, but not by subclasses already defined.
func (c *Class) Statics() *Record { return c.statics }

// Static returns a static member, or Undefined.
func (c *Class) Static(name string) Value { return c.statics.Lookup(name) }

// IsSubclassOf reports whether other is c or one of its ancestors.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// New constructs an instance, running the lifecycle initializers with args.
func (c *Class) New(args ...Value) (*Object, error) {
	return c.rt.construct(c, args, nil)
}

// CallStatic calls a static method. Inside the body Call.Class is c and
// Call.Self is nil.
func (c *Class) CallStatic(name string, args ...Value) (Value, error) {
	m, err := c.staticMethod(name)
	if err != nil {
		return Undefined{}, err
	}
	return c.rt.call(m, nil, c, args, nil)
}

func (c *Class) staticMethod(name string) (*Method, error) {
	v := c.statics.Lookup(name)
	m, ok := v.(*Method)
	if !ok {
		return nil, &RuntimeError{
			Code:    ErrCodeNotCallable,
			Message: "static member is " + TypeName(v) + ", not a method",
			Member:  name,
			Class:   c.name,
		}
	}
	return m, nil
}

func (c *Class) String() string {
	return "class " + c.name
}
