package engine

// Declaration control keys and reserved member names.
const (
	keyClassName = "_class"
	keyExtends   = "_extends"
	keyBaseClass = "_baseClass"
	keyStatic    = "_static"
	keySettings  = "_settings"
	keyClassVars = "__classvars__"
	keyInclude   = "__include__"

	keyConstructor = "constructor"
	keyInit        = "init"
	keyAltInit     = "__init__"
	keySuper       = "_super"
	keyAltSuper    = "$super"
	keyClassRef    = "$class"

	staticExtend   = "$extend"
	staticWithData = "$withData"

	rootClassName = "Class"
	anonymousName = "_"
)

// restrictedKeys are skipped by the restricted merge: class machinery that
// mixins and bulk property arguments must never overwrite.
var restrictedKeys = map[string]struct{}{
	keyConstructor: {},
	keyInit:        {},
	keyAltInit:     {},
	keySuper:       {},
	keyAltSuper:    {},
	keyClassVars:   {},
	keyClassRef:    {},
	keyClassName:   {},
	keyExtends:     {},
	keyBaseClass:   {},
	keyStatic:      {},
	keyInclude:     {},
	keySettings:    {},
}

// controlMembers are template members ignored by the deep-copy decision.
var controlMembers = map[string]struct{}{
	keyConstructor: {},
	keyInit:        {},
	keyAltInit:     {},
	keySuper:       {},
	keyAltSuper:    {},
	keyClassVars:   {},
	keyClassRef:    {},
}

func isRestricted(name string) bool {
	_, ok := restrictedKeys[name]
	return ok
}
