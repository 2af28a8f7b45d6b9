package engine

import (
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/classier/internal/config"
)

// DefaultMaxDepth is the default maximum length of a method call chain.
// It stops runaway recursion (a method whose super dispatch loops back to
// itself) before the Go stack does.
const DefaultMaxDepth = 512

// IDGenerator generates object identifiers.
// Implemented by UUIDv7Generator (production) and testutil.IDGenerator
// (deterministic runs).
type IDGenerator interface {
	Generate() string
}

// Runtime owns the root class, the settings store and the trusted flag.
//
// Thread-safety: a Runtime is single-threaded. Classes and objects created
// by one runtime must not be used from several goroutines at once.
type Runtime struct {
	cfg      *config.Store
	logger   *slog.Logger
	ids      IDGenerator
	maxDepth int

	// trusted suspends the guard while the engine's own helpers read
	// guarded slots. Set and restored in pairs, never across user code.
	trusted bool

	root *Class
	// sources caches call-site files read for class naming.
	sources map[string][]string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithConfig shares an existing settings store with the runtime.
func WithConfig(store *config.Store) Option {
	return func(rt *Runtime) {
		if store != nil {
			rt.cfg = store
		}
	}
}

// WithLogger sets the runtime's logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithIDGenerator sets the object identifier generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(rt *Runtime) {
		if g != nil {
			rt.ids = g
		}
	}
}

// WithMaxDepth sets the maximum call chain length. Zero disables the limit.
func WithMaxDepth(depth int) Option {
	return func(rt *Runtime) {
		rt.maxDepth = depth
	}
}

// New creates a runtime and defines its root class.
//
// The root class is named "Class", is marked as a base class, and carries
// the _super (legacy syntax) and $super (alt syntax) dispatchers that every
// class inherits.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:      UUIDv7Generator{},
		maxDepth: DefaultMaxDepth,
		sources:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.cfg == nil {
		rt.cfg = config.NewStore(config.WithLogger(rt.logger))
	}

	st := rt.cfg.Current()
	decl := NewRecord(F(keyClassName, String(rootClassName)), F(keyBaseClass, Bool(true)))
	if st.LegacySyntaxCompatible {
		decl.Set(keySuper, newSuperAlias(keySuper))
	}
	if st.AltSyntaxCompatible {
		decl.Set(keyAltSuper, newSuperAlias(keyAltSuper))
	}
	rt.root = rt.DefineClass(decl)
	if st.AltSyntaxCompatible {
		rt.root.statics.Set("$classyVersion", String("1.4"))
		rt.root.statics.Set("$classierVersion", String("1.5"))
		rt.root.statics.Set(staticSettings, NewMethod(staticSettings, rt.settingsStatic))
	}
	return rt
}

const staticSettings = "$settings"

// settingsStatic is the root's $settings: a record argument is merged into
// the shared settings, and the current settings come back as a record.
func (rt *Runtime) settingsStatic(c *Call) (Value, error) {
	if partial, ok := c.Arg(0).(*Record); ok {
		m := make(map[string]any, partial.Len())
		for _, f := range partial.Fields() {
			switch v := f.Value.(type) {
			case Bool:
				m[f.Key] = bool(v)
			case String:
				m[f.Key] = string(v)
			default:
				m[f.Key] = v
			}
		}
		rt.Configure(m)
	}
	return settingsRecord(rt.cfg.Current()), nil
}

func settingsRecord(st config.Settings) *Record {
	m := st.Map()
	r := NewRecord()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		switch v := m[k].(type) {
		case bool:
			r.Set(k, Bool(v))
		case string:
			r.Set(k, String(v))
		}
	}
	return r
}

// Root returns the root class every class without an explicit parent
// inherits from.
func (rt *Runtime) Root() *Class { return rt.root }

// Config returns the shared settings store.
func (rt *Runtime) Config() *config.Store { return rt.cfg }

// Configure merges partial into the shared settings.
func (rt *Runtime) Configure(partial map[string]any) config.Settings {
	return rt.cfg.Configure(partial)
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// Trusted reports whether the guard is currently suspended.
func (rt *Runtime) Trusted() bool { return rt.trusted }

// trust suspends the guard and returns the function that restores it.
// Callers defer the restore so the flag is cleared on every exit path.
func (rt *Runtime) trust() func() {
	prev := rt.trusted
	rt.trusted = true
	return func() { rt.trusted = prev }
}

func (rt *Runtime) newObject(proto *Object) *Object {
	return &Object{
		id:    rt.ids.Generate(),
		proto: proto,
		slots: make(map[string]*slot),
		rt:    rt,
	}
}

func (rt *Runtime) invoke(o *Object, name string, args []Value, fr *frame) (Value, error) {
	v, err := rt.get(o, name, fr)
	if err != nil {
		return Undefined{}, err
	}
	m, ok := v.(*Method)
	if !ok {
		return Undefined{}, newNotCallable(o, name, v)
	}
	return rt.call(m, o, nil, args, fr)
}

// call runs m with a new frame chained to parent. Wrapped methods run the
// cleanup pass on the receiver after a successful body.
func (rt *Runtime) call(m *Method, recv *Object, cls *Class, args []Value, parent *frame) (Value, error) {
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	if rt.maxDepth > 0 && depth > rt.maxDepth {
		return Undefined{}, newDepthExceeded(m, depth, rt.maxDepth)
	}
	c := &Call{
		rt:    rt,
		self:  recv,
		class: cls,
		args:  args,
		frame: &frame{method: m, parent: parent, depth: depth},
	}
	res, err := m.fn(c)
	if err != nil {
		return Undefined{}, err
	}
	if res == nil {
		res = Undefined{}
	}
	if m.wrapped && !m.skipCleanup && recv != nil {
		rt.clean(recv, m.owner)
	}
	return res, nil
}
