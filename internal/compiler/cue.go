package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/script"
)

// ParseCUE parses a CUE manifest. Uses the CUE SDK's Go API directly.
//
// CUE hides identifiers starting with an underscore, so control keys must
// be quoted:
//
//	classes: Dog: {
//		"_extends": "Animal"
//		speak: {"$fn": "function() { return 'woof'; }"}
//	}
func ParseCUE(data []byte, file string, host *script.Host) (*Manifest, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(file))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	d := &cueDecoder{host: host}
	m := &Manifest{}

	if sv := v.LookupPath(cue.ParsePath("settings")); sv.Exists() {
		settings := map[string]any{}
		if err := sv.Decode(&settings); err != nil {
			return nil, formatCUEError(err)
		}
		m.Settings = settings
	}

	var err error
	if mv := v.LookupPath(cue.ParsePath("mixins")); mv.Exists() {
		if m.Mixins, err = d.entries(mv, "mixins"); err != nil {
			return nil, err
		}
	}
	if cv := v.LookupPath(cue.ParsePath("classes")); cv.Exists() {
		if m.Classes, err = d.entries(cv, "classes"); err != nil {
			return nil, err
		}
		for _, e := range m.Classes {
			nameDecl(e.Name, e.Decl)
		}
	}
	return m, nil
}

type cueDecoder struct {
	host *script.Host
}

func (d *cueDecoder) entries(v cue.Value, section string) ([]Entry, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Entry
	for iter.Next() {
		name := iter.Label()
		val, err := d.value(iter.Value(), name)
		if err != nil {
			return nil, err
		}
		decl, ok := val.(*engine.Record)
		if !ok {
			return nil, atPos(iter.Value().Pos(), section+"."+name, "declaration must be a struct")
		}
		out = append(out, Entry{Name: name, Decl: decl})
	}
	return out, nil
}

func (d *cueDecoder) value(v cue.Value, name string) (engine.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return engine.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return engine.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return engine.Int(i), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return engine.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return engine.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		l := engine.NewList()
		for iter.Next() {
			item, err := d.value(iter.Value(), name)
			if err != nil {
				return nil, err
			}
			l.Push(item)
		}
		return l, nil
	case cue.StructKind:
		return d.record(v, name)
	default:
		return nil, atPos(v.Pos(), name, fmt.Sprintf("unsupported value kind %v", v.Kind()))
	}
}

func (d *cueDecoder) record(v cue.Value, name string) (engine.Value, error) {
	fn := v.LookupPath(cue.MakePath(cue.Str(fnKey)))
	if fn.Exists() {
		src, err := fn.String()
		if err != nil {
			return nil, atPos(fn.Pos(), name, "method source must be a string")
		}
		if d.host == nil {
			return nil, atPos(fn.Pos(), name, "manifest declares methods but no script host was given")
		}
		m, err := d.host.Method(name, src)
		if err != nil {
			return nil, atPos(fn.Pos(), name, err.Error())
		}
		return m, nil
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	r := engine.NewRecord()
	for iter.Next() {
		key := iter.Label()
		val, err := d.value(iter.Value(), key)
		if err != nil {
			return nil, err
		}
		r.Set(key, val)
	}
	return r, nil
}
