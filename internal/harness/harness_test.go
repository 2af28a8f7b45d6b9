package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classier/internal/ir"
)

// writeScenario writes a scenario using the zoo manifest and loads it.
func writeScenario(t *testing.T, body string) *Scenario {
	t.Helper()
	zoo, err := filepath.Abs(filepath.Join("testdata", "zoo.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := "name: inline\nspecs:\n  - " + zoo + "\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	return scenario
}

func TestRun_DogBasicsGolden(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "dog_basics.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Trace, 13)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "dog_basics.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := (&TraceSnapshot{ScenarioName: scenario.Name, Trace: first.Trace}).Marshal()
	require.NoError(t, err)
	b, err := (&TraceSnapshot{ScenarioName: scenario.Name, Trace: second.Trace}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_FailedExpectationIsRecorded(t *testing.T) {
	scenario := writeScenario(t, `
steps:
  - new: Dog
    args: ["rex"]
    as: rex
  - call: speak
    on: "@rex"
    expect: "woof"
  - get: kind
    on: "@rex"
    error: access_denied
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `step 1 (call): expected "woof"`)
	assert.Contains(t, result.Errors[1], "step 2 (get): expected access_denied error")
}

func TestRun_UnexpectedErrorIsRecorded(t *testing.T) {
	scenario := writeScenario(t, `
steps:
  - new: Dog
    args: ["rex"]
    as: rex
  - get: __legs
    on: "@rex"
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.Equal(t, ErrAccessDenied, result.Trace[1].Error)
}

func TestRun_AnyErrorMatches(t *testing.T) {
	scenario := writeScenario(t, `
steps:
  - new: Dog
    args: ["rex"]
    as: rex
  - call: missing
    on: "@rex"
    error: any
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, ErrNotCallable, result.Trace[1].Error)
}

func TestRun_StaticCallsAndAnonymousObjects(t *testing.T) {
	scenario := writeScenario(t, `
steps:
  - call: $withData
    on: Dog
    args:
      - name: ghost
  - call: $withData
    on: Dog
    args:
      - name: shade
    as: shade
  - get: name
    on: "@shade"
    expect: shade
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	first := result.Trace[0].Result.(ir.IRObject)
	assert.Equal(t, ir.IRString("#1"), first[ir.TagObject])
	second := result.Trace[1].Result.(ir.IRObject)
	assert.Equal(t, ir.IRString("@shade"), second[ir.TagObject])
}

func TestRun_BindingsInArguments(t *testing.T) {
	scenario := writeScenario(t, `
steps:
  - new: Dog
    args: ["rex"]
    as: rex
  - call: tag
    on: "@rex"
    args: ["@rex"]
    expect: 1
  - get: tags
    on: "@rex"
    expect: ["@rex"]
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	arg := result.Trace[1].Args[0].(ir.IRObject)
	assert.Equal(t, ir.IRString("@rex"), arg[ir.TagObject])
	assert.Contains(t, arg, "members")

	tags := result.Trace[2].Result.(ir.IRArray)
	require.Len(t, tags, 1)
	nested := tags[0].(ir.IRObject)
	assert.Equal(t, ir.IRString("@rex"), nested[ir.TagObject])
	assert.NotContains(t, nested, "members", "nested objects are references")
}

func TestRun_ConfigureStep(t *testing.T) {
	scenario := writeScenario(t, `
steps:
  - configure:
      autoNameFromCallSite: false
  - new: Animal
    args: ["tom"]
    as: tom
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, OpConfigure, result.Trace[0].Op)
	assert.Nil(t, result.Trace[0].Result)
}

func TestRun_InfrastructureErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown binding",
			body: "steps:\n  - call: speak\n    on: \"@nobody\"\n",
			want: `unknown binding "@nobody"`,
		},
		{
			name: "unknown class",
			body: "steps:\n  - new: Cat\n",
			want: `unknown class "Cat"`,
		},
		{
			name: "get on a class",
			body: "steps:\n  - get: kind\n    on: Dog\n",
			want: "not an object",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_BadManifest(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(spec, []byte("classes:\n  A:\n    _extends: Missing\n"), 0644))

	scenario := &Scenario{
		Name:  "broken",
		Specs: []string{spec},
		Steps: []Step{{New: "A"}},
	}
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load spec")
	assert.Contains(t, err.Error(), `unknown class "Missing"`)
}
