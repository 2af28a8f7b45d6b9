package compiler

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/script"
)

// jsTag marks a scalar holding a method source.
const jsTag = "!js"

// ParseYAML parses a YAML manifest. file is used in error positions only.
func ParseYAML(data []byte, file string, host *script.Host) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CompileError{File: file, Field: "yaml", Message: err.Error()}
	}

	m := &Manifest{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return m, nil
	}

	d := &yamlDecoder{file: file, host: host}
	root := d.deref(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, d.errAt(root, "manifest", "top level must be a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], d.deref(root.Content[i+1])
		switch key.Value {
		case "settings":
			settings := map[string]any{}
			if err := val.Decode(&settings); err != nil {
				return nil, d.errAt(val, "settings", err.Error())
			}
			m.Settings = settings
		case "mixins":
			entries, err := d.entries(val, "mixins")
			if err != nil {
				return nil, err
			}
			m.Mixins = entries
		case "classes":
			entries, err := d.entries(val, "classes")
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				nameDecl(e.Name, e.Decl)
			}
			m.Classes = entries
		default:
			return nil, d.errAt(key, key.Value, "unknown manifest section")
		}
	}
	return m, nil
}

type yamlDecoder struct {
	file string
	host *script.Host
}

func (d *yamlDecoder) errAt(n *yaml.Node, field, msg string) *CompileError {
	return &CompileError{File: d.file, Line: n.Line, Column: n.Column, Field: field, Message: msg}
}

func (d *yamlDecoder) deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// entries decodes a mapping of name to declaration.
func (d *yamlDecoder) entries(n *yaml.Node, section string) ([]Entry, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.errAt(n, section, "must be a mapping of names to declarations")
	}

	var out []Entry
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		val := d.deref(n.Content[i+1])
		if val.Kind != yaml.MappingNode {
			return nil, d.errAt(val, section+"."+name, "declaration must be a mapping")
		}
		v, err := d.value(val, name)
		if err != nil {
			return nil, err
		}
		decl, ok := v.(*engine.Record)
		if !ok {
			return nil, d.errAt(val, section+"."+name, "declaration must be a mapping, not a method")
		}
		out = append(out, Entry{Name: name, Decl: decl})
	}
	return out, nil
}

// value decodes a node. name is the member the value is stored under and
// names compiled methods.
func (d *yamlDecoder) value(n *yaml.Node, name string) (engine.Value, error) {
	n = d.deref(n)
	if n.Tag == jsTag {
		return d.method(n, name)
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalar(n, name)
	case yaml.SequenceNode:
		l := engine.NewList()
		for i, item := range n.Content {
			v, err := d.value(item, name+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			l.Push(v)
		}
		return l, nil
	case yaml.MappingNode:
		if len(n.Content) == 2 && n.Content[0].Value == fnKey {
			return d.method(n.Content[1], name)
		}
		r := engine.NewRecord()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			v, err := d.value(n.Content[i+1], key)
			if err != nil {
				return nil, err
			}
			r.Set(key, v)
		}
		return r, nil
	default:
		return nil, d.errAt(n, name, fmt.Sprintf("unsupported node kind %d", n.Kind))
	}
}

func (d *yamlDecoder) scalar(n *yaml.Node, name string) (engine.Value, error) {
	switch n.Tag {
	case "!!null":
		return engine.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errAt(n, name, err.Error())
		}
		return engine.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, d.errAt(n, name, err.Error())
		}
		return engine.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, d.errAt(n, name, err.Error())
		}
		return engine.Float(f), nil
	default:
		return engine.String(n.Value), nil
	}
}

func (d *yamlDecoder) method(n *yaml.Node, name string) (engine.Value, error) {
	n = d.deref(n)
	if n.Kind != yaml.ScalarNode {
		return nil, d.errAt(n, name, "method source must be a string")
	}
	if d.host == nil {
		return nil, d.errAt(n, name, "manifest declares methods but no script host was given")
	}
	m, err := d.host.Method(name, n.Value)
	if err != nil {
		return nil, d.errAt(n, name, err.Error())
	}
	return m, nil
}

// DecodeYAML decodes a single node the way manifest values are decoded:
// `!js` scalars and {$fn: ...} mappings become methods. name names any
// method found at the top level.
func DecodeYAML(n *yaml.Node, file, name string, host *script.Host) (engine.Value, error) {
	if n == nil || n.Kind == 0 {
		return engine.Undefined{}, nil
	}
	d := &yamlDecoder{file: file, host: host}
	return d.value(n, name)
}
