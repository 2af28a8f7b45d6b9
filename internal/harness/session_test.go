package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classier/internal/ir"
)

func newZooSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession([]string{filepath.Join("testdata", "zoo.yaml")})
	require.NoError(t, err)
	return s
}

func execLine(t *testing.T, s *Session, src string) (TraceEvent, []string) {
	t.Helper()
	step, err := ParseStep(src)
	require.NoError(t, err)
	event, failures, err := s.Exec(step)
	require.NoError(t, err)
	return event, failures
}

func TestSession_StepsShareState(t *testing.T) {
	s := newZooSession(t)
	assert.Equal(t, []string{"Animal", "Dog"}, s.Classes())

	event, failures := execLine(t, s, `{new: Dog, args: [rex], as: rex}`)
	assert.Empty(t, failures)
	assert.Equal(t, int64(1), event.Seq)
	assert.Equal(t, "Dog", event.Target)

	event, failures = execLine(t, s, `{call: speak, on: "@rex", expect: "rex has 4 legs!"}`)
	assert.Empty(t, failures)
	assert.Equal(t, int64(2), event.Seq)
	assert.Equal(t, ir.IRString("rex has 4 legs!"), event.Result)

	event, failures = execLine(t, s, `{get: __legs, on: "@rex"}`)
	assert.Equal(t, ErrAccessDenied, event.Error)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "unexpected error")

	assert.Len(t, s.Result().Trace, 3)
	assert.False(t, s.Result().Pass)
}

func TestSession_BrokenStepLeavesNoTrace(t *testing.T) {
	s := newZooSession(t)

	step, err := ParseStep(`{call: speak, on: "@nobody"}`)
	require.NoError(t, err)
	_, _, err = s.Exec(step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown binding "@nobody"`)

	_, _, err = s.Exec(&Step{})
	require.Error(t, err)
	assert.Empty(t, s.Result().Trace)
}

func TestSession_BadManifest(t *testing.T) {
	_, err := NewSession([]string{filepath.Join("testdata", "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load spec")
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantOp  string
		wantErr string
	}{
		{name: "flow mapping", src: `{new: Dog, args: [rex]}`, wantOp: OpNew},
		{name: "block mapping", src: "set: nickname\non: \"@rex\"\nvalue: Rexy\n", wantOp: OpSet},
		{name: "unknown field", src: `{new: Dog, bogus: 1}`, wantErr: "failed to parse step"},
		{name: "no operation", src: `{on: "@rex"}`, wantErr: "exactly one operation is required"},
		{name: "missing receiver", src: `{call: speak}`, wantErr: "call requires on"},
		{name: "bad error kind", src: `{get: x, on: "@a", error: boom}`, wantErr: `unknown error kind "boom"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := ParseStep(tt.src)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOp, step.Op())
		})
	}
}
