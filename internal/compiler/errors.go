package compiler

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a manifest error with its source position when known.
type CompileError struct {
	Field   string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Field, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsCompileError reports whether err is or wraps a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

func atPos(pos token.Pos, field, msg string) *CompileError {
	e := &CompileError{Field: field, Message: msg}
	if pos.IsValid() {
		e.File = pos.Filename()
		e.Line = pos.Line()
		e.Column = pos.Column()
	}
	return e
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return atPos(positions[0], "cue", first.Error())
	}
	return &CompileError{Field: "cue", Message: first.Error()}
}
