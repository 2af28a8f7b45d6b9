package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/roach88/classier/internal/engine"
	"github.com/roach88/classier/internal/ir"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	New   string // constructor arguments as JSON
	Args  string // method arguments as JSON
	Query string // gjson path selecting part of the result
}

// InvokeResult is the outcome of an invocation.
type InvokeResult struct {
	Class  string          `json:"class"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <manifest> <class> [method]",
		Short: "Construct an instance and optionally call a method",
		Long: `Define the classes of a manifest, construct an instance of a class with
the --new arguments and, when a method is given, call it with the --args
arguments. The instance or the method result is printed as canonical JSON.

A JSON array is spread into positional arguments; any other JSON value is
passed as the single argument. --query selects part of the result with a
gjson path such as members.tags.0.

Examples:
  classier invoke zoo.yaml Dog --new '["rex"]'
  classier invoke zoo.yaml Dog speak --new '["rex"]'
  classier invoke zoo.yaml Dog tag --new '["rex"]' --args '["good"]'
  classier invoke zoo.yaml Dog --new '["rex"]' --query members.name`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			method := ""
			if len(args) == 3 {
				method = args[2]
			}
			return invokeMethod(opts, args[0], args[1], method, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.New, "new", "[]", "constructor arguments as JSON")
	cmd.Flags().StringVar(&opts.Args, "args", "[]", "method arguments as JSON")
	cmd.Flags().StringVar(&opts.Query, "query", "", "gjson path selecting part of the result")

	return cmd
}

func invokeMethod(opts *InvokeOptions, manifest, className, method string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctorArgs, err := parseArgs("--new", opts.New)
	if err != nil {
		return commandError(formatter, err)
	}
	callArgs, err := parseArgs("--args", opts.Args)
	if err != nil {
		return commandError(formatter, err)
	}

	session, err := NewSession(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return commandError(formatter, err)
	}
	program, err := session.LoadProgram(manifest)
	if err != nil {
		return commandError(formatter, err)
	}
	cls, ok := program.Class(className)
	if !ok {
		return commandError(formatter, &LoadError{Code: ErrCodeUnknownClass, Message: fmt.Sprintf("class %q not found in %s", className, manifest)})
	}

	obj, err := cls.New(ctorArgs...)
	if err != nil {
		return callError(formatter, "new "+className, err)
	}
	formatter.VerboseLog("Constructed %s", obj)

	var out engine.Value = obj
	if method != "" {
		out, err = obj.Invoke(method, callArgs...)
		if err != nil {
			return callError(formatter, className+"."+method, err)
		}
	}

	data, err := ir.MarshalCanonical(out)
	if err != nil {
		return commandError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("result: %v", err)})
	}

	if opts.Query != "" {
		data, err = selectResult(data, opts.Query)
		if err != nil {
			return commandError(formatter, err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(InvokeResult{Class: className, Method: method, Result: data})
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}

// parseArgs decodes a JSON argument flag. Arrays are spread.
func parseArgs(flag, raw string) ([]engine.Value, error) {
	v, err := ir.DecodeJSON([]byte(raw))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadArgs, Message: fmt.Sprintf("invalid %s JSON: %v", flag, err)}
	}
	if l, ok := v.(*engine.List); ok {
		return l.Items(), nil
	}
	return []engine.Value{v}, nil
}

// selectResult applies a gjson path to canonical result JSON. The
// selected value keeps its raw canonical encoding.
func selectResult(data []byte, path string) ([]byte, error) {
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return nil, &LoadError{Code: ErrCodeBadArgs, Message: fmt.Sprintf("query %q matched nothing", path)}
	}
	return []byte(res.Raw), nil
}

// callError reports a failed constructor or method call. Engine errors are
// failures of the invoked code, not of the command.
func callError(f *OutputFormatter, what string, err error) error {
	message := fmt.Sprintf("%s: %v", what, err)
	_ = f.Error(ErrCodeCallFailed, message, nil)
	return WrapExitError(ExitFailure, what, err)
}
