// Package script compiles JavaScript function expressions into engine
// methods.
//
// A Host owns one goja runtime. Every method it compiles runs on that
// runtime with `this` bound to a dynamic object that routes member access
// through the executing *engine.Call, so the visibility guard applies to
// script code exactly as it does to Go methods.
//
// Value mapping:
//
//	engine.Undefined / Null      undefined / null
//	Bool, Int, Float, String     boolean, number, number, string
//	*engine.List                 array (live, push and length work)
//	*engine.Record               object (live)
//	*engine.Object               object routed through the guard
//	*engine.Method               function bound to its receiver
//	*engine.Class                function constructing an instance
//
// Integral JavaScript numbers map back to Int, others to Float.
//
// Thread-safety: a Host is single-threaded, like the runtime it serves.
package script

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dop251/goja"

	"github.com/roach88/classier/internal/engine"
)

// Host compiles and runs script methods.
type Host struct {
	vm      *goja.Runtime
	logger  *slog.Logger
	timeout time.Duration

	sessions []*session
	// wrappers maps bridged JS objects back to their engine values;
	// bridged caches the reverse so identity holds inside one run.
	wrappers map[*goja.Object]engine.Value
	bridged  map[any]goja.Value
}

// session is one running script method.
type session struct {
	call *engine.Call
	// pending is the engine error a bridge callback threw, returned to
	// the Go caller unchanged instead of the JS exception wrapping it.
	pending error
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger console.log writes to (debug level).
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithTimeout interrupts an outermost script call running longer than d.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// New creates a host with a fresh goja runtime.
func New(opts ...Option) *Host {
	h := &Host{
		vm:       goja.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		wrappers: make(map[*goja.Object]engine.Value),
		bridged:  make(map[any]goja.Value),
	}
	for _, opt := range opts {
		opt(h)
	}

	console := h.vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.Export()
		}
		h.logger.Debug("script console", "message", fmt.Sprint(args...))
		return goja.Undefined()
	})
	_ = h.vm.Set("console", console)
	return h
}

// Method compiles src, a JavaScript function expression, into a method
// named name. The source text is kept so an initializer can skip the
// cleanup pass when it assigns no prefixed member.
//
// Example:
//
//	m, err := host.Method("reveal", "function() { return this.__secret; }")
func (h *Host) Method(name, src string) (*engine.Method, error) {
	v, err := h.vm.RunString("(" + src + ")")
	if err != nil {
		return nil, engine.NewScriptError(name, "compile: "+err.Error())
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, engine.NewScriptError(name, "source is not a function expression")
	}
	return engine.NewScriptMethod(name, src, h.body(name, fn)), nil
}

// MustMethod is like Method but panics on error. For tests and static
// declarations.
func (h *Host) MustMethod(name, src string) *engine.Method {
	m, err := h.Method(name, src)
	if err != nil {
		panic(err)
	}
	return m
}

// body adapts a compiled JS function to an engine method body.
func (h *Host) body(name string, fn goja.Callable) engine.MethodFunc {
	return func(c *engine.Call) (engine.Value, error) {
		sess := &session{call: c}
		h.sessions = append(h.sessions, sess)
		outermost := len(h.sessions) == 1
		defer h.pop(outermost)

		if outermost && h.timeout > 0 {
			timer := time.AfterFunc(h.timeout, func() {
				h.vm.Interrupt("script timeout")
			})
			defer func() {
				timer.Stop()
				h.vm.ClearInterrupt()
			}()
		}

		this := goja.Undefined()
		switch {
		case c.Self() != nil:
			this = h.toJS(c.Self())
		case c.Class() != nil:
			this = h.toJS(c.Class())
		}

		res, err := fn(this, h.toJSArgs(c.Args())...)
		if err != nil {
			if sess.pending != nil {
				return nil, sess.pending
			}
			return nil, h.scriptError(name, err)
		}
		return h.fromJS(res), nil
	}
}

func (h *Host) pop(outermost bool) {
	h.sessions = h.sessions[:len(h.sessions)-1]
	if outermost {
		clear(h.wrappers)
		clear(h.bridged)
	}
}

// current returns the innermost running call, or nil outside any method.
func (h *Host) current() *session {
	if len(h.sessions) == 0 {
		return nil
	}
	return h.sessions[len(h.sessions)-1]
}

var errNoCall = errors.New("script value used outside a running method")

// throw raises err as a JS exception from inside a bridge callback and
// remembers it for the Go caller.
func (h *Host) throw(err error) {
	if sess := h.current(); sess != nil {
		sess.pending = err
	}
	panic(h.vm.NewGoError(err))
}

func (h *Host) call() *engine.Call {
	sess := h.current()
	if sess == nil {
		h.throw(errNoCall)
	}
	return sess.call
}

func (h *Host) scriptError(name string, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return engine.NewScriptError(name, "interrupted: "+fmt.Sprint(interrupted.Value()))
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return engine.NewScriptError(name, ex.Error())
	}
	return engine.NewScriptError(name, err.Error())
}
