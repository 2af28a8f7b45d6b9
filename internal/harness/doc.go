// Package harness runs class scenarios: YAML files that load manifests,
// drive instances through a list of steps and check the outcome.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs:
//	  - zoo.yaml              # manifests, relative to the scenario file
//	settings:
//	  enforceVisibility: true # applied before the manifests
//	steps:
//	  - new: Dog
//	    args: ["rex"]
//	    as: rex               # binds the result as @rex
//	  - call: speak
//	    on: "@rex"
//	    expect: "rex has 4 legs!"
//	  - get: __legs
//	    on: "@rex"
//	    error: access_denied
//	assertions:
//	  - type: visibility
//	    on: "@rex"
//	    member: __legs
//	    expect: private
//
// # Steps
//
// Exactly one operation per step:
//
//   - new: construct a class (manifest name or @binding) with args
//   - call: invoke a method on an instance (on: @binding) or a static
//     method on a class (on: class name)
//   - get / set: read or write a member of an instance, externally
//   - extend: derive a class from a parent with decl; bind it with as
//   - with_data: construct a class with value as data, skipping init
//   - configure: apply partial settings
//
// A step may expect a value (expect) or an error (error: access_denied,
// not_callable, no_super, depth_exceeded, no_receiver, script_error or
// any). Strings starting with "@" in args, values and expectations refer
// to bindings.
//
// # Assertions
//
//   - visibility: a member of a bound instance resolves as public,
//     protected or private (or absent)
//   - member: a public member of a bound instance equals expect
//   - trace_count: exactly count steps ran op
//   - instance_of: a bound instance belongs to class (or a subclass)
//
// # Deterministic Testing
//
// Every run uses a fresh runtime with sequential object IDs from
// testutil.DeterministicClock, and traces name objects by their binding,
// so identical scenarios produce byte-identical traces for golden
// comparison.
//
// # Sessions
//
// A Session runs steps one at a time on a single runtime, for interactive
// tools. ParseStep reads one step written as a YAML mapping.
package harness
