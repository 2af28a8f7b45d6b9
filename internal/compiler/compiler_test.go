package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/script"
	"github.com/roach88/classier/internal/testutil"
)

func newRuntime() *engine.Runtime {
	return engine.New(engine.WithIDGenerator(testutil.NewIDGenerator("obj", nil)))
}

func TestCompile_Zoo(t *testing.T) {
	for _, file := range []string{"testdata/zoo.yaml", "testdata/zoo.cue"} {
		t.Run(file, func(t *testing.T) {
			rt := newRuntime()
			p, err := Compile(rt, script.New(), file)
			require.NoError(t, err)

			assert.Equal(t, []string{"Animal", "Dog"}, p.Order)

			dog := p.MustClass("Dog")
			assert.Equal(t, "Dog", dog.Name())
			assert.Same(t, p.MustClass("Animal"), dog.Parent())
			assert.True(t, dog.IsDeep())

			rex, err := dog.New(engine.String("rex"))
			require.NoError(t, err)

			v, err := rex.Invoke("speak")
			require.NoError(t, err)
			assert.Equal(t, engine.String("rex has 4 legs!"), v)

			v, err = rex.Invoke("label")
			require.NoError(t, err)
			assert.Equal(t, engine.String("dog:rex"), v)

			_, err = rex.Get("__legs")
			assert.True(t, engine.IsAccessDenied(err))

			n, err := rex.Invoke("tag", engine.String("good"))
			require.NoError(t, err)
			assert.Equal(t, engine.Int(1), n)

			other, err := dog.New(engine.String("fido"))
			require.NoError(t, err)
			tags, _ := other.Get("tags")
			assert.Equal(t, 0, tags.(*engine.List).Len())
		})
	}
}

func TestParseYAML_Values(t *testing.T) {
	m, err := ParseYAML([]byte(`
classes:
  Box:
    i: 1
    f: 1.5
    b: true
    n: null
    s: text
    l: [1, two]
    r: {k: v}
    m: {$fn: "function() { return 1; }"}
`), "box.yaml", script.New())
	require.NoError(t, err)

	decl, ok := m.Class("Box")
	require.True(t, ok)
	assert.Equal(t, engine.String("Box"), decl.Lookup("_class"))
	assert.Equal(t, engine.Int(1), decl.Lookup("i"))
	assert.Equal(t, engine.Float(1.5), decl.Lookup("f"))
	assert.Equal(t, engine.Bool(true), decl.Lookup("b"))
	assert.Equal(t, engine.Null{}, decl.Lookup("n"))
	assert.Equal(t, engine.String("text"), decl.Lookup("s"))
	assert.Equal(t, engine.NewList(engine.Int(1), engine.String("two")), decl.Lookup("l"))
	assert.Equal(t, engine.NewRecord(engine.F("k", engine.String("v"))), decl.Lookup("r"))

	meth, isMethod := decl.Lookup("m").(*engine.Method)
	require.True(t, isMethod)
	assert.Equal(t, "m", meth.Name())
	assert.Equal(t, "function() { return 1; }", meth.Source())
}

func TestParseYAML_ExplicitClassNameKept(t *testing.T) {
	m, err := ParseYAML([]byte(`
classes:
  Key:
    _class: Shown
`), "", nil)
	require.NoError(t, err)
	decl, _ := m.Class("Key")
	assert.Equal(t, engine.String("Shown"), decl.Lookup("_class"))
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"not a mapping", "- 1\n- 2\n", "top level must be a mapping"},
		{"unknown section", "extras: {}\n", "unknown manifest section"},
		{"declaration not mapping", "classes:\n  A: 3\n", "declaration must be a mapping"},
		{"bad method", "classes:\n  A:\n    m: !js \"function( {\"\n", "SCRIPT_ERROR"},
		{"method not scalar", "classes:\n  A:\n    m: !js [1]\n", "method source must be a string"},
		{"syntax", "classes: [\n", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.input), "bad.yaml", script.New())
			require.Error(t, err)
			assert.True(t, IsCompileError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseYAML_MethodsNeedHost(t *testing.T) {
	_, err := ParseYAML([]byte("classes:\n  A:\n    m: !js \"function() {}\"\n"), "a.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no script host")
}

func TestParseYAML_ErrorPosition(t *testing.T) {
	_, err := ParseYAML([]byte("classes:\n  A: 3\n"), "pos.yaml", nil)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "pos.yaml", ce.File)
	assert.Equal(t, 2, ce.Line)
}

func TestParseYAML_Empty(t *testing.T) {
	m, err := ParseYAML(nil, "empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, m.Classes)
}

func TestParseCUE_Values(t *testing.T) {
	m, err := ParseCUE([]byte(`
settings: protectedPrefix: "p_"
classes: Box: {
	i: 1
	f: 1.5
	b: true
	n: null
	l: [1, "two"]
	"_hidden": "visible"
}
`), "box.cue", nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"protectedPrefix": "p_"}, m.Settings)

	decl, ok := m.Class("Box")
	require.True(t, ok)
	assert.Equal(t, []string{"i", "f", "b", "n", "l", "_hidden", "_class"}, decl.Keys())
	assert.Equal(t, engine.Int(1), decl.Lookup("i"))
	assert.Equal(t, engine.Float(1.5), decl.Lookup("f"))
	assert.Equal(t, engine.Null{}, decl.Lookup("n"))
	assert.Equal(t, engine.String("visible"), decl.Lookup("_hidden"))
}

func TestParseCUE_Errors(t *testing.T) {
	_, err := ParseCUE([]byte(`classes: {`), "bad.cue", nil)
	require.Error(t, err)
	assert.True(t, IsCompileError(err))

	_, err = ParseCUE([]byte(`classes: A: x: int`), "incomplete.cue", nil)
	require.Error(t, err)

	_, err = ParseCUE([]byte(`classes: A: 3`), "scalar.cue", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declaration must be a struct")
}

func TestBuild_UnknownReferences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"parent", "classes:\n  A:\n    _extends: Missing\n", `unknown class "Missing"`},
		{"include", "classes:\n  A:\n    __include__: Missing\n", `unknown mixin or class "Missing"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseYAML([]byte(tt.input), "refs.yaml", nil)
			require.NoError(t, err)
			_, err = Build(newRuntime(), m)
			require.Error(t, err)
			assert.True(t, IsCompileError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuild_Cycles(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"self", "classes:\n  A:\n    _extends: A\n", "A -> A"},
		{"pair", "classes:\n  A:\n    _extends: B\n  B:\n    _extends: A\n", "A -> B -> A"},
		{"through include", "classes:\n  A:\n    __include__: [B]\n  B:\n    _extends: A\n", "A -> B -> A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseYAML([]byte(tt.input), "cycle.yaml", nil)
			require.NoError(t, err)
			_, err = Build(newRuntime(), m)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "inheritance cycle")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuild_OrderKeepsManifestOrder(t *testing.T) {
	m, err := ParseYAML([]byte(`
classes:
  C:
    _extends: B
  A: {}
  B:
    _extends: A
  D: {}
`), "order.yaml", nil)
	require.NoError(t, err)

	p, err := Build(newRuntime(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, p.Order)
	assert.True(t, p.MustClass("C").IsSubclassOf(p.MustClass("A")))

	_, ok := p.Class("E")
	assert.False(t, ok)
	assert.Panics(t, func() { p.MustClass("E") })
}

func TestBuild_AppliesSettings(t *testing.T) {
	m, err := ParseYAML([]byte(`
settings:
  enforceVisibility: false
classes:
  Open:
    __secret: 1
`), "open.yaml", nil)
	require.NoError(t, err)

	rt := newRuntime()
	p, err := Build(rt, m)
	require.NoError(t, err)
	assert.False(t, rt.Config().Current().EnforceVisibility)

	o, err := p.MustClass("Open").New()
	require.NoError(t, err)
	v, err := o.Get("__secret")
	require.NoError(t, err)
	assert.Equal(t, engine.Int(1), v)
}

func TestBuild_IncludeClass(t *testing.T) {
	m, err := ParseYAML([]byte(`
classes:
  User:
    _extends: Base
    __include__: Helpers
  Helpers:
    greeting: hello
  Base:
    kind: base
`), "include.yaml", nil)
	require.NoError(t, err)

	p, err := Build(newRuntime(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Helpers", "User"}, p.Order)

	u, err := p.MustClass("User").New()
	require.NoError(t, err)
	g, _ := u.Get("greeting")
	k, _ := u.Get("kind")
	assert.Equal(t, engine.String("hello"), g)
	assert.Equal(t, engine.String("base"), k)
}

func TestLoad_UnknownExtension(t *testing.T) {
	_, err := Load("testdata/zoo.txt", nil)
	require.Error(t, err)
}
