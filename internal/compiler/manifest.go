// Package compiler loads class manifests and defines their classes on a
// runtime.
//
// A manifest is a YAML or CUE document with three optional sections:
//
//	settings:  partial runtime settings applied before any class is defined
//	mixins:    named property bags usable in __include__
//	classes:   named class declarations, in document order
//
// Methods are JavaScript function expressions, written with the YAML `!js`
// tag or as a {"$fn": "..."} record in either format. Inside a manifest,
// _extends names another class of the same manifest and __include__ names
// mixins or classes.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/script"
)

// fnKey marks a record that holds a method source.
const fnKey = "$fn"

const (
	keyClassName = "_class"
	keyExtends   = "_extends"
	keyInclude   = "__include__"
)

// Manifest is a parsed manifest. Declarations hold compiled methods but no
// class references yet: _extends and __include__ are still names.
type Manifest struct {
	// Source is the file the manifest was read from, if any.
	Source   string
	Settings map[string]any
	Mixins   []Entry
	Classes  []Entry
}

// Entry is one named declaration.
type Entry struct {
	Name string
	Decl *engine.Record
}

// Class returns the named class declaration.
func (m *Manifest) Class(name string) (*engine.Record, bool) {
	return find(m.Classes, name)
}

// Mixin returns the named mixin.
func (m *Manifest) Mixin(name string) (*engine.Record, bool) {
	return find(m.Mixins, name)
}

func find(entries []Entry, name string) (*engine.Record, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e.Decl, true
		}
	}
	return nil, false
}

// Load reads a manifest, choosing the format from the file extension
// (.yaml, .yml or .cue).
func Load(path string, host *script.Host) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m *Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = ParseYAML(data, path, host)
	case ".cue":
		m, err = ParseCUE(data, path, host)
	default:
		return nil, &CompileError{File: path, Field: "manifest", Message: "unknown manifest format (want .yaml, .yml or .cue)"}
	}
	if err != nil {
		return nil, err
	}
	m.Source = path
	return m, nil
}

// nameDecl sets _class from the entry name when the declaration has none.
func nameDecl(name string, decl *engine.Record) {
	if !decl.Has(keyClassName) {
		decl.Set(keyClassName, engine.String(name))
	}
}
