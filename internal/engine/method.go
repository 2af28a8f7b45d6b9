package engine

// MethodFunc is the body of a method. The *Call carries the receiver, the
// arguments and the capability to reach guarded members.
type MethodFunc func(c *Call) (Value, error)

// Method is a callable member value.
//
// Methods declared on a class are wrapped when the class is defined: the
// wrapper is owned by the class, remembers the overridden parent method as
// its super, and runs the cleanup pass after each call.
type Method struct {
	name   string
	fn     MethodFunc
	source string

	owner       *Class
	super       *Method
	wrapped     bool
	skipCleanup bool
	// superAlias marks the _super / $super dispatchers.
	superAlias bool
}

// NewMethod creates a method from a Go function.
func NewMethod(name string, fn MethodFunc) *Method {
	return &Method{name: name, fn: fn}
}

// NewScriptMethod creates a method whose body has source text. The text
// lets an initializer skip the cleanup pass when it provably assigns no
// private or protected member.
func NewScriptMethod(name, source string, fn MethodFunc) *Method {
	return &Method{name: name, fn: fn, source: source}
}

// Name returns the member name the method was created or declared under.
func (m *Method) Name() string { return m.name }

// Source returns the method's source text, if any.
func (m *Method) Source() string { return m.source }

// Owner returns the class that declared the method, nil for unwrapped
// methods (mixins, statics, root aliases).
func (m *Method) Owner() *Class { return m.owner }

// Super returns the overridden parent method, if any.
func (m *Method) Super() *Method { return m.super }

// SkipsCleanup reports whether the cleanup pass is skipped after calls.
func (m *Method) SkipsCleanup() bool { return m.skipCleanup }

func (m *Method) String() string {
	if m.owner != nil {
		return "method " + m.owner.name + "." + m.name
	}
	return "method " + m.name
}

// wrap returns the class-owned wrapper for a declared method.
func wrap(name string, m *Method, owner *Class, super *Method, skipCleanup bool) *Method {
	return &Method{
		name:        name,
		fn:          m.fn,
		source:      m.source,
		owner:       owner,
		super:       super,
		wrapped:     true,
		skipCleanup: skipCleanup,
	}
}

// frame is one link of the explicit call chain.
type frame struct {
	method *Method
	parent *frame
	depth  int
}

// runsMethodOf reports whether the innermost frame runs a method owned by c.
func (f *frame) runsMethodOf(c *Class) bool {
	if f == nil || f.method == nil || c == nil {
		return false
	}
	return f.method.owner == c
}

// Call is the context of one method invocation.
type Call struct {
	rt    *Runtime
	self  *Object
	class *Class
	args  []Value
	frame *frame
}

// Self returns the receiver. Nil for static method calls.
func (c *Call) Self() *Object { return c.self }

// Class returns the class a static method was called on.
func (c *Call) Class() *Class { return c.class }

// Runtime returns the runtime executing the call.
func (c *Call) Runtime() *Runtime { return c.rt }

// Method returns the method being executed.
func (c *Call) Method() *Method { return c.frame.method }

// Args returns the call arguments.
func (c *Call) Args() []Value { return c.args }

// Arg returns argument i, or Undefined when absent.
func (c *Call) Arg(i int) Value {
	if i < 0 || i >= len(c.args) {
		return Undefined{}
	}
	return c.args[i]
}

// Get reads a member of the receiver.
func (c *Call) Get(name string) (Value, error) {
	return c.rt.get(c.self, name, c.frame)
}

// Set writes a member of the receiver.
func (c *Call) Set(name string, v Value) error {
	return c.rt.set(c.self, name, v, c.frame)
}

// Invoke calls a method of the receiver.
func (c *Call) Invoke(name string, args ...Value) (Value, error) {
	return c.rt.invoke(c.self, name, args, c.frame)
}

// GetFrom reads a member of another object under this call's capability.
func (c *Call) GetFrom(o *Object, name string) (Value, error) {
	return c.rt.get(o, name, c.frame)
}

// SetOn writes a member of another object under this call's capability.
func (c *Call) SetOn(o *Object, name string, v Value) error {
	return c.rt.set(o, name, v, c.frame)
}

// DeleteFrom removes an own member of o under this call's capability.
func (c *Call) DeleteFrom(o *Object, name string) (bool, error) {
	return c.rt.deleteMember(o, name, c.frame)
}

// InvokeOn calls a method of another object under this call's capability.
func (c *Call) InvokeOn(o *Object, name string, args ...Value) (Value, error) {
	return c.rt.invoke(o, name, args, c.frame)
}

// Apply calls m with recv as receiver, chained to this call.
func (c *Call) Apply(m *Method, recv *Object, args ...Value) (Value, error) {
	return c.rt.call(m, recv, nil, args, c.frame)
}

// Super calls the method this one overrides with the same receiver.
func (c *Call) Super(args ...Value) (Value, error) {
	target := c.frame.method.super
	if target == nil {
		return Undefined{}, newNoSuper(c.frame.method)
	}
	return c.rt.call(target, c.self, c.class, args, c.frame)
}

// CallStatic calls a static method of cls, chained to this call.
func (c *Call) CallStatic(cls *Class, name string, args ...Value) (Value, error) {
	m, err := cls.staticMethod(name)
	if err != nil {
		return Undefined{}, err
	}
	return c.rt.call(m, nil, cls, args, c.frame)
}

// New constructs an instance of cls, chained to this call.
func (c *Call) New(cls *Class, args ...Value) (*Object, error) {
	return c.rt.construct(cls, args, c.frame)
}

// superDispatch is the body of the _super / $super root members: it calls
// the super of the method that invoked it.
func superDispatch(c *Call) (Value, error) {
	caller := c.frame.parent
	if caller == nil || caller.method == nil || caller.method.super == nil {
		var m *Method
		if caller != nil {
			m = caller.method
		}
		return Undefined{}, newNoSuper(m)
	}
	return c.rt.call(caller.method.super, c.self, c.class, c.args, c.frame)
}

func newSuperAlias(name string) *Method {
	return &Method{name: name, fn: superDispatch, superAlias: true}
}
