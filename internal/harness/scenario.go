package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one class scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists manifest files, relative to the scenario file.
	Specs []string `yaml:"specs"`

	// Settings are applied before the manifests are built.
	Settings map[string]any `yaml:"settings,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions check the final state and the trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation. Exactly one of New, Call, Get, Set, Extend,
// WithData and Configure is set.
type Step struct {
	New       string         `yaml:"new,omitempty"`
	Call      string         `yaml:"call,omitempty"`
	Get       string         `yaml:"get,omitempty"`
	Set       string         `yaml:"set,omitempty"`
	Extend    string         `yaml:"extend,omitempty"`
	WithData  string         `yaml:"with_data,omitempty"`
	Configure map[string]any `yaml:"configure,omitempty"`

	// On is the receiver: "@binding" for an instance, a class name (or
	// class binding) for a static call.
	On string `yaml:"on,omitempty"`

	// Args are the call or constructor arguments.
	Args *yaml.Node `yaml:"args,omitempty"`

	// Value is the value written by set and the data of with_data.
	Value *yaml.Node `yaml:"value,omitempty"`

	// Decl is the declaration of extend. Methods use the !js tag.
	Decl *yaml.Node `yaml:"decl,omitempty"`

	// As binds the step result.
	As string `yaml:"as,omitempty"`

	// Expect is the expected result value.
	Expect *yaml.Node `yaml:"expect,omitempty"`

	// Error is the expected error kind.
	Error string `yaml:"error,omitempty"`
}

// Step operations.
const (
	OpNew       = "new"
	OpCall      = "call"
	OpGet       = "get"
	OpSet       = "set"
	OpExtend    = "extend"
	OpWithData  = "with_data"
	OpConfigure = "configure"
)

// Expected error kinds.
const (
	ErrAccessDenied  = "access_denied"
	ErrNotCallable   = "not_callable"
	ErrNoSuper       = "no_super"
	ErrDepthExceeded = "depth_exceeded"
	ErrNoReceiver    = "no_receiver"
	ErrScript        = "script_error"
	ErrAny           = "any"
)

// Op returns the step operation, or "" when none or several are set.
func (s *Step) Op() string {
	var ops []string
	if s.New != "" {
		ops = append(ops, OpNew)
	}
	if s.Call != "" {
		ops = append(ops, OpCall)
	}
	if s.Get != "" {
		ops = append(ops, OpGet)
	}
	if s.Set != "" {
		ops = append(ops, OpSet)
	}
	if s.Extend != "" {
		ops = append(ops, OpExtend)
	}
	if s.WithData != "" {
		ops = append(ops, OpWithData)
	}
	if s.Configure != nil {
		ops = append(ops, OpConfigure)
	}
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// Assertion checks the final state or the trace.
type Assertion struct {
	// Type is visibility, member, trace_count or instance_of.
	Type string `yaml:"type"`

	// On is the bound instance (visibility, member, instance_of).
	On string `yaml:"on,omitempty"`

	// Member is the member name (visibility, member).
	Member string `yaml:"member,omitempty"`

	// Expect is the expected visibility or member value.
	Expect *yaml.Node `yaml:"expect,omitempty"`

	// Op and Count are used by trace_count.
	Op    string `yaml:"op,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Class is used by instance_of.
	Class string `yaml:"class,omitempty"`
}

// Assertion type constants.
const (
	AssertVisibility = "visibility"
	AssertMember     = "member"
	AssertTraceCount = "trace_count"
	AssertInstanceOf = "instance_of"
)

// LoadScenario reads a scenario file. Spec paths are resolved relative to
// the scenario's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file, resolving relative spec
// paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i := range s.Steps {
		if err := validateStep(&s.Steps[i]); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step *Step) error {
	op := step.Op()
	if op == "" {
		return fmt.Errorf("exactly one operation is required")
	}
	switch op {
	case OpCall, OpGet, OpSet:
		if step.On == "" {
			return fmt.Errorf("%s requires on", op)
		}
	case OpExtend:
		if step.Decl == nil {
			return fmt.Errorf("extend requires decl")
		}
	}
	if step.Error != "" && step.Expect != nil {
		return fmt.Errorf("expect and error are exclusive")
	}
	if step.Error != "" && !validErrorKind(step.Error) {
		return fmt.Errorf("unknown error kind %q", step.Error)
	}
	return nil
}

// ParseStep decodes and validates a single step written as a YAML
// mapping, usually in flow style:
//
//	{call: speak, on: "@rex", expect: "rex has 4 legs!"}
func ParseStep(src string) (*Step, error) {
	var step Step
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(src)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&step); err != nil {
		return nil, fmt.Errorf("failed to parse step: %w", err)
	}
	if err := validateStep(&step); err != nil {
		return nil, err
	}
	return &step, nil
}

func validErrorKind(kind string) bool {
	switch kind {
	case ErrAccessDenied, ErrNotCallable, ErrNoSuper, ErrDepthExceeded, ErrNoReceiver, ErrScript, ErrAny:
		return true
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertVisibility, AssertMember:
		if a.On == "" || a.Member == "" {
			return fmt.Errorf("assertions[%d]: on and member are required for %s", index, a.Type)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertInstanceOf:
		if a.On == "" || a.Class == "" {
			return fmt.Errorf("assertions[%d]: on and class are required for instance_of", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
