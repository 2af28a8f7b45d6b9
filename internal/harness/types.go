package harness

import "github.com/roach88/classier/internal/ir"

// TraceEvent records one executed step. Values are canonical, with objects
// named by their binding.
type TraceEvent struct {
	Seq    int64
	Op     string
	Target string
	Member string
	Args   ir.IRArray
	Result ir.IRValue
	// Error is the error kind the step failed with, "" on success.
	Error string
}

// toIR converts the event for canonical serialization.
func (e TraceEvent) toIR() ir.IRObject {
	obj := ir.NewIRObject(
		ir.O("seq", ir.IRInt(e.Seq)),
		ir.O("op", ir.IRString(e.Op)),
	)
	if e.Target != "" {
		obj["target"] = ir.IRString(e.Target)
	}
	if e.Member != "" {
		obj["member"] = ir.IRString(e.Member)
	}
	if len(e.Args) > 0 {
		obj["args"] = e.Args
	}
	if e.Error != "" {
		obj["error"] = ir.IRString(e.Error)
	} else if e.Result != nil {
		obj["result"] = e.Result
	}
	return obj
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool

	// Trace holds the executed steps in order.
	Trace []TraceEvent

	// Errors holds the failed expectations and assertions.
	Errors []string
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// CountOp returns how many steps ran op.
func (r *Result) CountOp(op string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Op == op {
			n++
		}
	}
	return n
}
