package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/classier/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Op)
		if event.Target != "" {
			fmt.Fprintf(&buf, " %s", event.Target)
		}
		if event.Member != "" {
			fmt.Fprintf(&buf, ".%s", event.Member)
		}
		if event.Error != "" {
			fmt.Fprintf(&buf, " -> %s", event.Error)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the final state of a
// run and returns the failure messages.
func EvaluateAssertions(h *Harness, result *Result, assertions []Assertion) []string {
	var failures []string
	for i := range assertions {
		if err := h.evaluate(&assertions[i], result); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func (h *Harness) evaluate(a *Assertion, result *Result) error {
	switch a.Type {
	case AssertVisibility:
		return h.assertVisibility(a, result.Trace)
	case AssertMember:
		return h.assertMember(a, result.Trace)
	case AssertTraceCount:
		return assertTraceCount(a, result)
	case AssertInstanceOf:
		return h.assertInstanceOf(a, result.Trace)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertVisibility checks how a member resolves on a bound instance.
// "absent" matches a missing member.
func (h *Harness) assertVisibility(a *Assertion, trace []TraceEvent) error {
	o, err := h.object(a.On)
	if err != nil {
		return err
	}
	want := ""
	if a.Expect != nil {
		want = a.Expect.Value
	}

	got := "absent"
	if vis, ok := o.Visibility(a.Member); ok {
		got = string(vis)
	}
	if got != want {
		return &AssertionError{
			Type:     AssertVisibility,
			Expected: fmt.Sprintf("%s.%s is %s", a.On, a.Member, want),
			Actual:   got,
			Trace:    trace,
		}
	}
	return nil
}

// assertMember reads a member externally and compares it with expect.
func (h *Harness) assertMember(a *Assertion, trace []TraceEvent) error {
	o, err := h.object(a.On)
	if err != nil {
		return err
	}
	want, err := h.decode(a.Expect, a.Member)
	if err != nil {
		return err
	}

	got, err := o.Get(a.Member)
	if err != nil {
		return &AssertionError{
			Type:     AssertMember,
			Expected: fmt.Sprintf("%s.%s = %s", a.On, a.Member, engine.Inspect(want)),
			Actual:   err.Error(),
			Trace:    trace,
		}
	}
	if !engine.Equal(want, got) {
		return &AssertionError{
			Type:     AssertMember,
			Expected: fmt.Sprintf("%s.%s = %s", a.On, a.Member, engine.Inspect(want)),
			Actual:   engine.Inspect(got),
			Trace:    trace,
		}
	}
	return nil
}

func assertTraceCount(a *Assertion, result *Result) error {
	if n := result.CountOp(a.Op); n != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s steps", a.Count, a.Op),
			Actual:   fmt.Sprintf("%d %s steps", n, a.Op),
			Trace:    result.Trace,
		}
	}
	return nil
}

func (h *Harness) assertInstanceOf(a *Assertion, trace []TraceEvent) error {
	o, err := h.object(a.On)
	if err != nil {
		return err
	}
	cls, err := h.class(a.Class)
	if err != nil {
		return err
	}
	if !o.InstanceOf(cls) {
		actual := "no class"
		if o.Class() != nil {
			actual = o.Class().Name()
		}
		return &AssertionError{
			Type:     AssertInstanceOf,
			Expected: fmt.Sprintf("%s instance of %s", a.On, a.Class),
			Actual:   actual,
			Trace:    trace,
		}
	}
	return nil
}
