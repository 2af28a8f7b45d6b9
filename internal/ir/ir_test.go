package ir

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/testutil"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"float", IRFloat(1.5), "1.5"},
		{"small float", IRFloat(1e-7), "1e-7"},
		{"large float", IRFloat(1.5e21), "1.5e+21"},
		{"bool", IRBool(true), "true"},
		{"null", IRNull{}, "null"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"simple object", IRObject{"a": IRInt(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra": IRInt(1),
		"alpha": IRInt(2),
		"beta":  IRObject{"b": IRInt(1), "a": IRInt(2)},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+1F600 encodes as the surrogate 0xD83D, which sorts before U+FF61
	// in UTF-16 even though it sorts after it in UTF-8.
	obj := IRObject{"\uFF61": IRInt(2), "\U0001F600": IRInt(1)}
	assert.Equal(t, []string{"\U0001F600", "\uFF61"}, obj.SortedKeys())
}

func TestMarshalCanonicalStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no html escape", "<a>&", `"<a>&"`},
		{"quote and backslash", `"\`, `"\"\\"`},
		{"control", "\n", `"\n"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"paragraph separator literal", "\u2029", "\"\u2029\""},
		{"literal backslash u2028 text", `\u2028`, `"\\u2028"`},
		{"nfc", "e\u0301", "\"\u00e9\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(3.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(engine.NewList(engine.Float(math.Inf(1))))
	assert.Error(t, err)
}

func TestFromValue(t *testing.T) {
	m := engine.NewMethod("run", nil)
	v, err := FromValue(engine.NewRecord(
		engine.F("u", engine.Undefined{}),
		engine.F("n", engine.Null{}),
		engine.F("f", engine.Float(2)),
		engine.F("g", engine.Float(0.25)),
		engine.F("l", engine.NewList(engine.String("x"))),
		engine.F("m", m),
	))
	require.NoError(t, err)

	out, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"f":2,"g":0.25,"l":["x"],"m":{"$fn":"run"},"n":null,"u":{"$undefined":true}}`, string(out))
}

func TestFromValue_Objects(t *testing.T) {
	rt := engine.New(engine.WithIDGenerator(testutil.NewIDGenerator("obj", nil)))
	cls := rt.DefineClass(engine.NewRecord(
		engine.F("_class", engine.String("Point")),
		engine.F("x", engine.Int(1)),
		engine.F("__hidden", engine.Int(2)),
		engine.F("move", engine.NewMethod("move", nil)),
	))
	p, err := cls.New()
	require.NoError(t, err)
	require.NoError(t, p.Set("peer", p))

	out, err := MarshalCanonical(p)
	require.NoError(t, err)
	id := p.ID()
	assert.Equal(t,
		`{"$object":"`+id+`","class":"Point","members":{"peer":{"$object":"`+id+`","class":"Point"},"x":1}}`,
		string(out))

	out, err = MarshalCanonical(cls)
	require.NoError(t, err)
	assert.Equal(t, `{"$class":"Point"}`, string(out))
}

func TestFromValue_Cycles(t *testing.T) {
	l := engine.NewList()
	l.Push(l)
	_, err := FromValue(l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic")

	shared := engine.NewList(engine.Int(1))
	_, err = FromValue(engine.NewList(shared, shared))
	assert.NoError(t, err, "shared but acyclic structure is fine")
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"b": [1, 2.5, "s", true, null], "a": {"k": -3}}`))
	require.NoError(t, err)

	want := engine.NewRecord(
		engine.F("b", engine.NewList(engine.Int(1), engine.Float(2.5), engine.String("s"), engine.Bool(true), engine.Null{})),
		engine.F("a", engine.NewRecord(engine.F("k", engine.Int(-3)))),
	)
	assert.True(t, engine.Equal(want, v), engine.Inspect(v))
	assert.Equal(t, []string{"b", "a"}, v.(*engine.Record).Keys())

	_, err = DecodeJSON([]byte(`[1,`))
	assert.Error(t, err)
	_, err = DecodeJSON([]byte(`1 2`))
	assert.Error(t, err)
}

func TestToValue(t *testing.T) {
	v := ToValue(IRObject{"b": IRArray{IRInt(1), IRFloat(0.5)}, "a": IRNull{}})
	r := v.(*engine.Record)
	assert.Equal(t, []string{"a", "b"}, r.Keys())
	assert.True(t, engine.Equal(engine.NewList(engine.Int(1), engine.Float(0.5)), r.Lookup("b")))
}

func TestDeclarationDigest(t *testing.T) {
	a := engine.NewRecord(engine.F("x", engine.Int(1)), engine.F("y", engine.String("s")))
	b := engine.NewRecord(engine.F("y", engine.String("s")), engine.F("x", engine.Int(1)))
	c := engine.NewRecord(engine.F("x", engine.Int(2)), engine.F("y", engine.String("s")))

	da := MustDeclarationDigest(a)
	assert.Len(t, da, 64)
	assert.Equal(t, da, MustDeclarationDigest(b), "member order does not matter")
	assert.NotEqual(t, da, MustDeclarationDigest(c))
	assert.Equal(t, MustDeclarationDigest(nil), MustDeclarationDigest(engine.NewRecord()))

	td, err := TraceDigest(IRObject{"x": IRInt(1)})
	require.NoError(t, err)
	assert.NotEqual(t, da, td)
	assert.Equal(t, strings.ToLower(td), td)
}

func TestMarshalIndent(t *testing.T) {
	out, err := MarshalIndent(IRObject{"b": IRInt(1), "a": IRArray{IRBool(false)}})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    false\n  ],\n  \"b\": 1\n}\n", string(out))
}
