// Package ir provides the canonical representation of engine values.
//
// Engine values are converted to IRValues, a small sealed set of JSON
// shapes, and serialized as RFC 8785 canonical JSON. The result is stable
// across runs, so it backs golden traces and declaration digests.
//
// Values that have no JSON shape use tagged objects:
//
//	undefined        {"$undefined":true}
//	method           {"$fn":"<source or name>"}
//	class            {"$class":"<name>"}
//	object           {"$object":"<id>","class":"<name>","members":{...}}
//
// ir imports only the engine package.
package ir
