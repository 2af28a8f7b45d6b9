package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/classier/internal/compiler"
	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/ir"
	"github.com/roach88/classier/internal/script"
	"github.com/roach88/classier/internal/testutil"
)

// DefaultScriptTimeout bounds every outermost script call of a run.
const DefaultScriptTimeout = 5 * time.Second

// Harness executes one scenario on a fresh runtime.
type Harness struct {
	rt     *engine.Runtime
	host   *script.Host
	clock  *testutil.DeterministicClock
	logger *slog.Logger

	classes  map[string]*engine.Class
	bindings map[string]engine.Value
	// aliases names objects in the trace: "@binding" for bound objects,
	// "#n" in order of first appearance for the others.
	aliases map[string]string
	anon    int
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	logger  *slog.Logger
	timeout time.Duration
}

// WithLogger sets the logger for the runtime, the script host and the
// step log. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithScriptTimeout overrides DefaultScriptTimeout.
func WithScriptTimeout(d time.Duration) Option {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh runtime with deterministic object IDs
//  2. Apply the scenario settings
//  3. Build the manifests listed in specs
//  4. Execute the steps, checking expect and error clauses
//  5. Evaluate the assertions
//
// A failed expectation or assertion is recorded in the result. A broken
// scenario (unknown class or binding, undecodable value, bad manifest) is
// returned as an error.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h, err := newHarness(scenario.Settings, scenario.Specs, opts)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i := range scenario.Steps {
		if err := h.executeStep(i, &scenario.Steps[i], result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	for _, msg := range EvaluateAssertions(h, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// newHarness creates a fresh runtime, applies settings and builds the
// manifests.
func newHarness(settings map[string]any, specs []string, opts []Option) (*Harness, error) {
	cfg := runConfig{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: DefaultScriptTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Harness{
		clock:    testutil.NewDeterministicClock(),
		logger:   cfg.logger,
		classes:  make(map[string]*engine.Class),
		bindings: make(map[string]engine.Value),
		aliases:  make(map[string]string),
	}
	h.rt = engine.New(
		engine.WithIDGenerator(testutil.NewIDGenerator("obj", nil)),
		engine.WithLogger(cfg.logger),
	)
	h.host = script.New(script.WithLogger(cfg.logger), script.WithTimeout(cfg.timeout))

	if len(settings) > 0 {
		h.rt.Configure(settings)
	}
	for _, spec := range specs {
		p, err := compiler.Compile(h.rt, h.host, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to load spec: %w", err)
		}
		for _, name := range p.Order {
			h.classes[name] = p.MustClass(name)
		}
	}
	return h, nil
}

// Session runs steps one at a time on a single runtime. Object IDs,
// sequence numbers and trace aliases are assigned as in Run.
type Session struct {
	h      *Harness
	result *Result
}

// NewSession builds the manifests on a fresh runtime.
func NewSession(specs []string, opts ...Option) (*Session, error) {
	h, err := newHarness(nil, specs, opts)
	if err != nil {
		return nil, err
	}
	return &Session{h: h, result: NewResult()}, nil
}

// Exec runs one step and returns its trace event and the expectation
// failures it produced. A broken step (unknown class or binding,
// undecodable value) is returned as an error.
func (s *Session) Exec(step *Step) (TraceEvent, []string, error) {
	if err := validateStep(step); err != nil {
		return TraceEvent{}, nil, err
	}
	seen := len(s.result.Errors)
	if err := s.h.executeStep(len(s.result.Trace), step, s.result); err != nil {
		return TraceEvent{}, nil, err
	}
	return s.result.Trace[len(s.result.Trace)-1], s.result.Errors[seen:], nil
}

// Result returns the trace and failures accumulated so far.
func (s *Session) Result() *Result { return s.result }

// Classes returns the names of the classes the manifests defined, sorted.
func (s *Session) Classes() []string {
	names := make([]string, 0, len(s.h.classes))
	for name := range s.h.classes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// executeStep runs one step, records it in the trace and checks its
// expectation.
func (h *Harness) executeStep(i int, step *Step, result *Result) error {
	op := step.Op()
	args, err := h.args(step.Args)
	if err != nil {
		return err
	}

	var (
		val    engine.Value
		engErr error
		target string
		member string
	)
	switch op {
	case OpNew:
		target = step.New
		cls, err := h.class(step.New)
		if err != nil {
			return err
		}
		var o *engine.Object
		o, engErr = cls.New(args...)
		val = objectValue(o)
	case OpCall:
		target, member = step.On, step.Call
		recv, err := h.lookup(step.On)
		if err != nil {
			return err
		}
		switch r := recv.(type) {
		case *engine.Object:
			val, engErr = r.Invoke(step.Call, args...)
		case *engine.Class:
			val, engErr = r.CallStatic(step.Call, args...)
		default:
			return fmt.Errorf("call: %s is %s, not an object or class", step.On, engine.TypeName(recv))
		}
	case OpGet:
		target, member = step.On, step.Get
		o, err := h.object(step.On)
		if err != nil {
			return err
		}
		val, engErr = o.Get(step.Get)
	case OpSet:
		target, member = step.On, step.Set
		o, err := h.object(step.On)
		if err != nil {
			return err
		}
		v, err := h.decode(step.Value, step.Set)
		if err != nil {
			return err
		}
		engErr = o.Set(step.Set, v)
		args = []engine.Value{v}
		val = engine.Undefined{}
	case OpExtend:
		target = step.Extend
		parent, err := h.class(step.Extend)
		if err != nil {
			return err
		}
		v, err := h.decode(step.Decl, "decl")
		if err != nil {
			return err
		}
		decl, ok := v.(*engine.Record)
		if !ok {
			return fmt.Errorf("extend: decl must be a mapping")
		}
		val = parent.Extend(decl)
	case OpWithData:
		target = step.WithData
		cls, err := h.class(step.WithData)
		if err != nil {
			return err
		}
		v, err := h.decode(step.Value, "data")
		if err != nil {
			return err
		}
		props, _ := v.(*engine.Record)
		if props != nil {
			args = []engine.Value{props}
		}
		var o *engine.Object
		o, engErr = cls.WithData(props)
		val = objectValue(o)
	case OpConfigure:
		h.rt.Configure(step.Configure)
		val = engine.Undefined{}
	default:
		return fmt.Errorf("exactly one operation is required")
	}

	if engErr == nil && step.As != "" {
		h.bind(step.As, val)
	}

	event := TraceEvent{
		Seq:    h.clock.Next(),
		Op:     op,
		Target: target,
		Member: member,
		Args:   h.canonArgs(args),
	}
	switch {
	case engErr != nil:
		event.Error = errorKind(engErr)
	case op == OpSet || op == OpConfigure:
	default:
		event.Result = h.canon(val)
	}
	result.Trace = append(result.Trace, event)

	h.logger.Debug("scenario step",
		"seq", event.Seq,
		"op", op,
		"target", target,
		"member", member,
		"error", engErr,
	)

	return h.check(i, step, val, engErr, result)
}

// check compares the step outcome with its expect or error clause.
func (h *Harness) check(i int, step *Step, val engine.Value, engErr error, result *Result) error {
	if step.Error != "" {
		switch {
		case engErr == nil:
			result.AddError(fmt.Sprintf("step %d (%s): expected %s error, got %s", i, step.Op(), step.Error, engine.Inspect(val)))
		case step.Error != ErrAny && errorKind(engErr) != step.Error:
			result.AddError(fmt.Sprintf("step %d (%s): expected %s error, got %v", i, step.Op(), step.Error, engErr))
		}
		return nil
	}
	if engErr != nil {
		result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", i, step.Op(), engErr))
		return nil
	}
	if step.Expect == nil {
		return nil
	}
	want, err := h.decode(step.Expect, "expect")
	if err != nil {
		return err
	}
	if !engine.Equal(want, val) {
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s", i, step.Op(), engine.Inspect(want), engine.Inspect(val)))
	}
	return nil
}

func objectValue(o *engine.Object) engine.Value {
	if o == nil {
		return engine.Undefined{}
	}
	return o
}

func (h *Harness) bind(name string, v engine.Value) {
	name = strings.TrimPrefix(name, "@")
	h.bindings[name] = v
	if o, ok := v.(*engine.Object); ok {
		h.aliases[o.ID()] = "@" + name
	}
}

// lookup resolves "@binding" or a class name.
func (h *Harness) lookup(ref string) (engine.Value, error) {
	if name, ok := strings.CutPrefix(ref, "@"); ok {
		v, found := h.bindings[name]
		if !found {
			return nil, fmt.Errorf("unknown binding %q", ref)
		}
		return v, nil
	}
	if cls, ok := h.classes[ref]; ok {
		return cls, nil
	}
	return nil, fmt.Errorf("unknown class %q", ref)
}

func (h *Harness) class(ref string) (*engine.Class, error) {
	v, err := h.lookup(ref)
	if err != nil {
		return nil, err
	}
	cls, ok := v.(*engine.Class)
	if !ok {
		return nil, fmt.Errorf("%s is %s, not a class", ref, engine.TypeName(v))
	}
	return cls, nil
}

func (h *Harness) object(ref string) (*engine.Object, error) {
	v, err := h.lookup(ref)
	if err != nil {
		return nil, err
	}
	o, ok := v.(*engine.Object)
	if !ok {
		return nil, fmt.Errorf("%s is %s, not an object", ref, engine.TypeName(v))
	}
	return o, nil
}

// decode turns a YAML node into an engine value with bindings resolved.
func (h *Harness) decode(n *yaml.Node, name string) (engine.Value, error) {
	if n == nil {
		return engine.Undefined{}, nil
	}
	v, err := compiler.DecodeYAML(n, "", name, h.host)
	if err != nil {
		return nil, err
	}
	return h.resolve(v)
}

func (h *Harness) args(n *yaml.Node) ([]engine.Value, error) {
	if n == nil {
		return nil, nil
	}
	v, err := h.decode(n, "arg")
	if err != nil {
		return nil, err
	}
	if l, ok := v.(*engine.List); ok {
		return l.Items(), nil
	}
	return []engine.Value{v}, nil
}

// resolve replaces "@binding" strings, recursively through lists and
// records.
func (h *Harness) resolve(v engine.Value) (engine.Value, error) {
	switch x := v.(type) {
	case engine.String:
		if strings.HasPrefix(string(x), "@") {
			return h.lookup(string(x))
		}
	case *engine.List:
		for i, item := range x.Items() {
			r, err := h.resolve(item)
			if err != nil {
				return nil, err
			}
			x.Set(i, r)
		}
	case *engine.Record:
		for _, f := range x.Fields() {
			r, err := h.resolve(f.Value)
			if err != nil {
				return nil, err
			}
			x.Set(f.Key, r)
		}
	}
	return v, nil
}

func (h *Harness) canonArgs(args []engine.Value) ir.IRArray {
	if len(args) == 0 {
		return nil
	}
	out := make(ir.IRArray, len(args))
	for i, a := range args {
		out[i] = h.canon(a)
	}
	return out
}

// canon converts a value for the trace, replacing object IDs by aliases.
func (h *Harness) canon(v engine.Value) ir.IRValue {
	iv, err := ir.FromValue(v)
	if err != nil {
		return ir.NewIRObject(ir.O("$unrepresentable", ir.IRString(err.Error())))
	}
	return h.relabel(iv)
}

func (h *Harness) relabel(v ir.IRValue) ir.IRValue {
	switch x := v.(type) {
	case ir.IRArray:
		for i, item := range x {
			x[i] = h.relabel(item)
		}
	case ir.IRObject:
		if id, ok := x[ir.TagObject].(ir.IRString); ok {
			alias, known := h.aliases[string(id)]
			if !known {
				h.anon++
				alias = fmt.Sprintf("#%d", h.anon)
				h.aliases[string(id)] = alias
			}
			x[ir.TagObject] = ir.IRString(alias)
		}
		for _, k := range x.SortedKeys() {
			x[k] = h.relabel(x[k])
		}
	}
	return v
}

// errorKind classifies an engine error for traces and error clauses.
func errorKind(err error) string {
	switch {
	case engine.IsAccessDenied(err):
		return ErrAccessDenied
	case engine.IsNotCallable(err):
		return ErrNotCallable
	case engine.IsNoSuper(err):
		return ErrNoSuper
	case engine.IsDepthExceeded(err):
		return ErrDepthExceeded
	case engine.IsNoReceiver(err):
		return ErrNoReceiver
	case engine.IsScriptError(err):
		return ErrScript
	default:
		return "error"
	}
}
