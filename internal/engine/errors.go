package engine

import (
	"errors"
	"fmt"
)

// Visibility classifies a member name.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// AccessDeniedError is returned when a guarded member is read or written
// from outside any method of the object.
//
// It is always surfaced to the caller. Reading a guarded member never
// degrades to Undefined.
type AccessDeniedError struct {
	// Member is the guarded member name.
	Member string

	// Visibility is VisibilityPrivate or VisibilityProtected.
	Visibility Visibility

	// Write is true when the denied access was an assignment.
	Write bool
}

// Error implements the error interface.
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("%s: you can not access the %s member %s", ErrCodeAccessDenied, e.Visibility, e.Member)
}

// IsAccessDenied returns true if err is (or wraps) an AccessDeniedError.
func IsAccessDenied(err error) bool {
	var ad *AccessDeniedError
	return errors.As(err, &ad)
}

// RuntimeError represents a contract violation raised while calling into
// classes and instances.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Member is the member involved, if any.
	Member string

	// Class is the debugging name of the class involved, if any.
	Class string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeAccessDenied prefixes AccessDeniedError messages.
	ErrCodeAccessDenied RuntimeErrorCode = "ACCESS_DENIED"

	// ErrCodeNotCallable indicates an invoked member is not a method.
	ErrCodeNotCallable RuntimeErrorCode = "NOT_CALLABLE"

	// ErrCodeNoSuper indicates a super call from a method without an
	// overridden counterpart.
	ErrCodeNoSuper RuntimeErrorCode = "NO_SUPER"

	// ErrCodeDepthExceeded indicates the method call chain exceeded the
	// runtime's maximum depth.
	ErrCodeDepthExceeded RuntimeErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeNoReceiver indicates a member access without an instance,
	// such as this.x inside a static method.
	ErrCodeNoReceiver RuntimeErrorCode = "NO_RECEIVER"

	// ErrCodeScript indicates a script method failed to compile or threw
	// a non-engine error.
	ErrCodeScript RuntimeErrorCode = "SCRIPT_ERROR"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Class != "" && e.Member != "" {
		return fmt.Sprintf("%s: %s (class=%s, member=%s)", e.Code, e.Message, e.Class, e.Member)
	}
	if e.Member != "" {
		return fmt.Sprintf("%s: %s (member=%s)", e.Code, e.Message, e.Member)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotCallable returns true if err is a NOT_CALLABLE runtime error.
func IsNotCallable(err error) bool { return hasCode(err, ErrCodeNotCallable) }

// IsNoSuper returns true if err is a NO_SUPER runtime error.
func IsNoSuper(err error) bool { return hasCode(err, ErrCodeNoSuper) }

// IsDepthExceeded returns true if err is a DEPTH_EXCEEDED runtime error.
func IsDepthExceeded(err error) bool { return hasCode(err, ErrCodeDepthExceeded) }

// IsNoReceiver returns true if err is a NO_RECEIVER runtime error.
func IsNoReceiver(err error) bool { return hasCode(err, ErrCodeNoReceiver) }

// IsScriptError returns true if err is a SCRIPT_ERROR runtime error.
func IsScriptError(err error) bool { return hasCode(err, ErrCodeScript) }

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newNotCallable(o *Object, member string, got Value) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNotCallable,
		Message: fmt.Sprintf("member is %s, not a method", TypeName(got)),
		Member:  member,
		Class:   o.className(),
	}
}

func newNoSuper(m *Method) *RuntimeError {
	re := &RuntimeError{
		Code:    ErrCodeNoSuper,
		Message: "no overridden method to call",
	}
	if m != nil {
		re.Member = m.name
		if m.owner != nil {
			re.Class = m.owner.name
		}
	}
	return re
}

func newDepthExceeded(m *Method, depth, limit int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("call depth %d exceeds limit %d", depth, limit),
		Member:  m.name,
	}
}

func newNoReceiver(member string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNoReceiver,
		Message: "member access without an instance",
		Member:  member,
	}
}

// NewScriptError creates a SCRIPT_ERROR runtime error for member.
func NewScriptError(member, msg string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeScript,
		Message: msg,
		Member:  member,
	}
}
