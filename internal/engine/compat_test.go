package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatics_PropagateAndMerge(t *testing.T) {
	rt := newTestRuntime(t)
	base := rt.DefineClass(NewRecord(
		F("_class", String("Base")),
		F("_static", NewRecord(
			F("kind", String("base")),
			F("limit", Int(3)),
		)),
	))
	child := base.Extend(NewRecord(
		F("_class", String("Child")),
		F("__classvars__", NewRecord(F("limit", Int(5)))),
	))

	assert.Equal(t, String("base"), child.Static("kind"))
	assert.Equal(t, Int(5), child.Static("limit"))
	assert.Equal(t, Int(3), base.Static("limit"))

	// Root statics are not copied down, but every class gets its own helpers.
	assert.False(t, child.Statics().Has("$classyVersion"))
	assert.IsType(t, &Method{}, child.Static("$extend"))
	assert.NotSame(t, base.Static("$extend"), child.Static("$extend"))

	assert.False(t, child.Template().Has("_static"))
	assert.False(t, child.Template().Has("__classvars__"))
}

func TestStatics_BlocksIgnoredWhenSyntaxDisabled(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Configure(map[string]any{
		"legacySyntaxCompatible": false,
		"altSyntaxCompatible":    false,
	})

	cls := rt.DefineClass(NewRecord(
		F("_class", String("Plain")),
		F("_static", NewRecord(F("a", Int(1)))),
		F("__classvars__", NewRecord(F("b", Int(2)))),
	))

	assert.Equal(t, 0, cls.Statics().Len())
	assert.True(t, cls.Template().HasOwn("_static"))
	assert.True(t, cls.Template().HasOwn("__classvars__"))
	assert.False(t, cls.Template().HasOwn("$class"))
}

func TestCompat_StaticHelpers(t *testing.T) {
	rt := newTestRuntime(t)
	A := defineA(rt)

	v, err := A.CallStatic("$extend", NewRecord(
		F("_class", String("Sub")),
		F("y", Int(4)),
	))
	require.NoError(t, err)
	sub := v.(*Class)
	assert.Same(t, A, sub.Parent())
	assert.Equal(t, "Sub", sub.Name())

	v, err = sub.CallStatic("$withData", NewRecord(F("x", Int(10))))
	require.NoError(t, err)
	o := v.(*Object)
	assert.True(t, o.InstanceOf(sub))
	assert.True(t, o.InstanceOf(A))

	x, err := o.Get("x")
	require.NoError(t, err)
	assert.Equal(t, Int(10), x)
	y, err := o.Get("y")
	require.NoError(t, err)
	assert.Equal(t, Int(4), y)
}

func TestCompat_ExtendChain(t *testing.T) {
	rt := newTestRuntime(t)
	A := defineA(rt)
	B := A.Extend(NewRecord(F("_class", String("B"))))
	C := B.Extend(NewRecord(
		F("_class", String("C")),
		F("reveal", NewMethod("reveal", func(c *Call) (Value, error) {
			v, err := c.Super()
			if err != nil {
				return nil, err
			}
			return v.(Int) * 10, nil
		})),
	))

	assert.True(t, C.IsSubclassOf(A))
	assert.False(t, A.IsSubclassOf(C))

	o, err := C.New()
	require.NoError(t, err)
	v, err := o.Invoke("reveal")
	require.NoError(t, err)
	assert.Equal(t, Int(20), v)
}

func TestMixins(t *testing.T) {
	rt := newTestRuntime(t)
	greeter := NewRecord(
		F("greet", NewMethod("greet", func(c *Call) (Value, error) {
			name, err := c.Get("name")
			if err != nil {
				return nil, err
			}
			return String("hi " + string(name.(String))), nil
		})),
		F("init", String("ignored")),
		F("constructor", String("ignored")),
	)
	tagged := rt.DefineClass(NewRecord(
		F("_class", String("Tagged")),
		F("tags", NewList(String("a"))),
	))

	person := rt.DefineClass(NewRecord(
		F("_class", String("Person")),
		F("name", String("ada")),
		F("__include__", NewList(greeter, tagged)),
	))

	o, err := person.New()
	require.NoError(t, err)

	v, err := o.Invoke("greet")
	require.NoError(t, err)
	assert.Equal(t, String("hi ada"), v)

	ctor, err := o.Get("constructor")
	require.NoError(t, err)
	assert.Same(t, person, ctor)
	ref, err := o.Get("$class")
	require.NoError(t, err)
	assert.Same(t, person, ref)

	// Mixed-in structured members make the class deep.
	assert.True(t, person.IsDeep())
	tags, err := o.Get("tags")
	require.NoError(t, err)
	assert.Equal(t, NewList(String("a")), tags)
	assert.False(t, o.InstanceOf(tagged))
}

func TestMixins_SingleSourceAndGuardedTargets(t *testing.T) {
	rt := newTestRuntime(t)
	parent := rt.DefineClass(NewRecord(
		F("_class", String("Parent")),
		F("_level", Int(1)),
		F("level", getter("_level")),
	))
	child := parent.Extend(NewRecord(
		F("_class", String("Child")),
		F("__include__", NewRecord(
			F("_level", Int(99)),
			F("extra", Bool(true)),
		)),
	))

	o, err := child.New()
	require.NoError(t, err)

	v, err := o.Invoke("level")
	require.NoError(t, err)
	assert.Equal(t, Int(1), v, "mixins cannot overwrite inherited guarded members")

	extra, err := o.Get("extra")
	require.NoError(t, err)
	assert.Equal(t, Bool(true), extra)
}

func TestMixins_DeclaredMembersWinOverInherited(t *testing.T) {
	rt := newTestRuntime(t)
	parent := rt.DefineClass(NewRecord(
		F("_class", String("Parent")),
		F("color", String("blue")),
		F("size", Int(1)),
	))
	child := parent.Extend(NewRecord(
		F("_class", String("Child")),
		F("color", String("green")),
	))

	o, err := child.New()
	require.NoError(t, err)
	color, _ := o.Get("color")
	size, _ := o.Get("size")
	assert.Equal(t, String("green"), color)
	assert.Equal(t, Int(1), size)
}

func TestDeep_InheritedFromDeepParent(t *testing.T) {
	rt := newTestRuntime(t)
	parent := rt.DefineClass(NewRecord(
		F("_class", String("Parent")),
		F("conf", NewRecord(F("depth", Int(1)))),
	))
	child := parent.Extend(NewRecord(F("_class", String("Child"))))
	require.True(t, child.IsDeep())

	// The child template owns its copy of the parent's record.
	assert.True(t, child.Template().HasOwn("conf"))
	pc, _ := parent.Template().Get("conf")
	cc, _ := child.Template().Get("conf")
	assert.NotSame(t, pc, cc)
	assert.Equal(t, pc, cc)

	o, err := child.New()
	require.NoError(t, err)
	oc, _ := o.Get("conf")
	oc.(*Record).Set("depth", Int(2))
	assert.Equal(t, Int(1), cc.(*Record).Lookup("depth"))
}

func TestDeep_GuardedStructuredMemberCounts(t *testing.T) {
	rt := newTestRuntime(t)
	cls := rt.DefineClass(NewRecord(
		F("_class", String("Hidden")),
		F("_buf", NewList()),
		F("push", NewMethod("push", func(c *Call) (Value, error) {
			v, err := c.Get("_buf")
			if err != nil {
				return nil, err
			}
			return Int(v.(*List).Push(c.Arg(0))), nil
		})),
	))
	require.True(t, cls.IsDeep())

	o1, err := cls.New()
	require.NoError(t, err)
	o2, err := cls.New()
	require.NoError(t, err)

	n, err := o1.Invoke("push", Int(1))
	require.NoError(t, err)
	assert.Equal(t, Int(1), n)
	n, err = o2.Invoke("push", Int(1))
	require.NoError(t, err)
	assert.Equal(t, Int(1), n)
}

func TestDeep_ControlMembersIgnored(t *testing.T) {
	tpl := &Object{slots: map[string]*slot{}}
	tpl.define("constructor", plainSlot(NewRecord()))
	tpl.define("init", plainSlot(NewList()))
	tpl.define("name", plainSlot(String("n")))
	assert.False(t, needsDeepCopy(tpl))

	tpl.define("data", plainSlot(NewRecord()))
	assert.True(t, needsDeepCopy(tpl))
}

func TestMixins_ValuesAreCopied(t *testing.T) {
	rt := newTestRuntime(t)
	tags := NewList(String("a"))
	source := NewRecord(F("tags", tags))
	donor := rt.DefineClass(NewRecord(
		F("_class", String("Donor")),
		F("conf", NewRecord(F("depth", Int(1)))),
	))
	mixed := rt.DefineClass(NewRecord(
		F("_class", String("Mixed")),
		F("__include__", NewList(source, donor)),
	))

	tags.Push(String("b"))
	dc, err := donor.Template().Get("conf")
	require.NoError(t, err)
	dc.(*Record).Set("depth", Int(2))

	o, err := mixed.New()
	require.NoError(t, err)
	v, err := o.Get("tags")
	require.NoError(t, err)
	assert.Equal(t, NewList(String("a")), v)
	c, err := o.Get("conf")
	require.NoError(t, err)
	assert.Equal(t, Int(1), c.(*Record).Lookup("depth"))

	tv, err := mixed.Template().Get("tags")
	require.NoError(t, err)
	assert.NotSame(t, tags, tv)
}
