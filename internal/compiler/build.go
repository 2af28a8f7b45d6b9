package compiler

import (
	"fmt"

	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/script"
)

// Program is a manifest whose classes are defined on a runtime.
type Program struct {
	Runtime  *engine.Runtime
	Manifest *Manifest
	// Order is the definition order: every class follows its parent and
	// included classes.
	Order   []string
	classes map[string]*engine.Class
}

// Class returns a defined class by manifest name.
func (p *Program) Class(name string) (*engine.Class, bool) {
	c, ok := p.classes[name]
	return c, ok
}

// MustClass is like Class but panics on an unknown name. For tests.
func (p *Program) MustClass(name string) *engine.Class {
	c, ok := p.classes[name]
	if !ok {
		panic(fmt.Sprintf("compiler: no class %q", name))
	}
	return c
}

// Build applies the manifest settings to rt and defines every class in
// dependency order. _extends and __include__ names are replaced by the
// classes and mixins they reference.
func Build(rt *engine.Runtime, m *Manifest) (*Program, error) {
	graph, err := buildDependencyGraph(m)
	if err != nil {
		return nil, err
	}
	order, err := definitionOrder(m, graph)
	if err != nil {
		return nil, err
	}

	if len(m.Settings) > 0 {
		rt.Configure(m.Settings)
	}

	p := &Program{
		Runtime:  rt,
		Manifest: m,
		Order:    order,
		classes:  make(map[string]*engine.Class, len(order)),
	}
	for _, name := range order {
		decl, _ := m.Class(name)
		p.classes[name] = rt.DefineClass(p.link(decl))
		rt.Logger().Debug("manifest class defined", "class", name, "source", m.Source)
	}
	return p, nil
}

// Compile loads the manifest at path and builds it on rt.
func Compile(rt *engine.Runtime, host *script.Host, path string) (*Program, error) {
	m, err := Load(path, host)
	if err != nil {
		return nil, err
	}
	p, err := Build(rt, m)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	return p, nil
}

// link returns a copy of decl with references resolved. Dependencies are
// already defined because classes are built in dependency order.
func (p *Program) link(decl *engine.Record) *engine.Record {
	out := decl.Copy()

	if parent, ok := out.Get(keyExtends); ok {
		if name, isName := parent.(engine.String); isName {
			out.Set(keyExtends, p.classes[string(name)])
		}
	}

	if _, ok := out.Get(keyInclude); ok {
		names := includeNames(out)
		sources := engine.NewList()
		for _, name := range names {
			if mixin, isMixin := p.Manifest.Mixin(name); isMixin {
				sources.Push(mixin)
				continue
			}
			sources.Push(p.classes[name])
		}
		out.Set(keyInclude, sources)
	}
	return out
}
