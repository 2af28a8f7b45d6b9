// Package engine implements the class runtime: a declarative,
// single-inheritance class model built on delegation-based objects.
//
// A class is declared as a flat property bag (a *Record). DefineClass
// resolves it into a template object that every instance delegates to (or
// copies from), and returns a *Class handle that constructs instances.
//
// ARCHITECTURE:
//
// Declaration → Resolver → Guard → Factory → *Class
//
//  1. DefineClass reads the control keys (_class, _extends, _baseClass,
//     _settings) from a private copy of the declaration.
//  2. resolve collects statics (_static, __classvars__), builds the
//     template on top of the parent template, wraps methods, and merges
//     members and mixins (__include__).
//  3. guardTemplate turns prefixed members into guarded slots and shadows
//     inherited private members.
//  4. needsDeepCopy decides once per class whether construction clones
//     structured members.
//
// At call time: Class.New → createDeep/newObject → init / __init__ →
// trailing properties record → instance. Every wrapped method runs the
// cleanup pass afterwards, so prefixed members created inside a method body
// become guarded slots too.
//
// VISIBILITY:
//
// Authorization is an explicit capability. Every method body receives a
// *Call carrying the chain of frames that led to it. A guarded member is
// readable and writable when some frame in that chain runs a method that is
// an enumerable member of the receiver. Object.Get and Object.Set carry no
// frames and are always denied on guarded members.
//
// CONCURRENCY:
//
// A Runtime is single-threaded. The trusted flag that suspends the guard is
// runtime state, set and restored by the engine's own helpers only.
package engine
