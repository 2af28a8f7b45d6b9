package engine

import (
	"github.com/roach88/classier/internal/config"
)

// DefineClass creates a class from a declaration.
//
// The declaration is a property bag: control keys (_class, _extends,
// _baseClass, _static, __classvars__, __include__, _settings) configure the
// class, every other key becomes an instance member. The declaration itself
// is not modified, so the same record may define several classes.
//
// DefineClass never fails. Control keys of the wrong type are ignored and
// logged at debug level, a missing parent means the root class.
func (rt *Runtime) DefineClass(decl *Record) *Class {
	st := rt.cfg.Current()
	d := decl.Copy()

	cls := &Class{rt: rt, props: true}
	cls.name = rt.nameClass(d, st)
	cls.parent = rt.parentOf(d, cls.name)
	if v, ok := d.Get(keySettings); ok {
		if b, isBool := v.(Bool); isBool && !bool(b) {
			cls.props = false
		}
	}

	rt.resolve(cls, d, st)
	rt.guardTemplate(cls, st)
	cls.deep = needsDeepCopy(cls.template)
	if st.AltSyntaxCompatible {
		installCompatStatics(cls)
	}

	rt.logger.Debug("class defined",
		"class", cls.name,
		"parent", parentName(cls.parent),
		"deep", cls.deep,
		"members", len(cls.template.order))
	return cls
}

// nameClass returns the explicit _class name, else a best-effort name
// inferred from the Go call site, else "_".
func (rt *Runtime) nameClass(d *Record, st config.Settings) string {
	if v, ok := d.Get(keyClassName); ok {
		if s, isStr := v.(String); isStr && s != "" {
			return string(s)
		}
		rt.logger.Debug("ignoring non-string class name", "type", TypeName(v))
	}
	if st.AutoNameFromCallSite {
		if name := rt.inferName(); name != "" {
			return name
		}
	}
	rt.logger.Debug("class name unavailable, using placeholder", "name", anonymousName)
	return anonymousName
}

// parentOf returns the declared parent, nil for base classes, else the root.
func (rt *Runtime) parentOf(d *Record, name string) *Class {
	if v, ok := d.Get(keyExtends); ok {
		if p, isClass := v.(*Class); isClass && p != nil {
			return p
		}
		if !IsUndefined(v) {
			rt.logger.Debug("ignoring non-class parent", "class", name, "type", TypeName(v))
		}
	}
	if v, ok := d.Get(keyBaseClass); ok && Truthy(v) {
		return nil
	}
	if rt.root == nil {
		rt.logger.Debug("root class not yet defined", "class", name)
	}
	return rt.root
}

func parentName(p *Class) string {
	if p == nil {
		return ""
	}
	return p.name
}
