package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/classier/internal/compiler"
	"github.com/roach88/classier/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// ClassSummary describes one defined class.
type ClassSummary struct {
	Name    string            `json:"name"`
	Parent  string            `json:"parent,omitempty"`
	Deep    bool              `json:"deep"`
	Members map[string]string `json:"members"` // member name -> visibility
	Statics []string          `json:"statics,omitempty"`
	Digest  string            `json:"digest"`
}

// CompilationResult holds the classes of one manifest.
type CompilationResult struct {
	Manifest string         `json:"manifest"`
	Classes  []ClassSummary `json:"classes"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <manifest>",
		Short: "Define the classes of a manifest and summarize them",
		Long: `Define every class of a YAML or CUE manifest on a fresh runtime and print
a summary: parent, instantiation strategy, member visibility, statics and
the declaration digest.

With --output, the declarations are written as canonical JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	session, err := NewSession(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return commandError(formatter, err)
	}
	program, err := session.LoadProgram(path)
	if err != nil {
		return commandError(formatter, err)
	}
	formatter.VerboseLog("Defined %d class(es) from %s", len(program.Order), path)

	result, err := summarize(program)
	if err != nil {
		return commandError(formatter, err)
	}

	if opts.Output != "" {
		if err := writeDeclarations(program, opts.Output); err != nil {
			return commandError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// summarize describes every class of a program in definition order.
func summarize(p *compiler.Program) (*CompilationResult, error) {
	result := &CompilationResult{Manifest: p.Manifest.Source}
	for _, name := range p.Order {
		cls := p.MustClass(name)
		decl, _ := p.Manifest.Class(name)

		digest, err := ir.DeclarationDigest(decl)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadValue, Message: fmt.Sprintf("class %s: %v", name, err)}
		}

		s := ClassSummary{
			Name:    cls.Name(),
			Deep:    cls.IsDeep(),
			Members: make(map[string]string),
			Digest:  digest,
		}
		if parent := cls.Parent(); parent != nil && parent != p.Runtime.Root() {
			s.Parent = parent.Name()
		}
		tpl := cls.Template()
		for _, key := range decl.Keys() {
			if isControlKey(key) {
				continue
			}
			if vis, ok := tpl.Visibility(key); ok {
				s.Members[key] = string(vis)
			}
		}
		for _, key := range cls.Statics().Keys() {
			if !strings.HasPrefix(key, "$") {
				s.Statics = append(s.Statics, key)
			}
		}
		result.Classes = append(result.Classes, s)
	}
	return result, nil
}

// isControlKey reports declaration keys that configure a class rather than
// declare a member.
func isControlKey(key string) bool {
	switch key {
	case "_class", "_extends", "_baseClass", "_static", "_settings", "__classvars__", "__include__":
		return true
	}
	return false
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d class(es) from %s\n\n", len(result.Classes), result.Manifest)
	for _, c := range result.Classes {
		header := c.Name
		if c.Parent != "" {
			header += " extends " + c.Parent
		}
		strategy := "shared"
		if c.Deep {
			strategy = "deep"
		}
		fmt.Fprintf(w, "  %s: %d member(s), %s, digest %s\n", header, len(c.Members), strategy, c.Digest[:12])
		if len(c.Statics) > 0 {
			fmt.Fprintf(w, "    statics: %s\n", strings.Join(c.Statics, ", "))
		}
	}

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote canonical declarations to %s\n", outputFile)
	}
	return nil
}

// writeDeclarations writes the class declarations to a file as indented
// canonical JSON, keyed by class name.
func writeDeclarations(p *compiler.Program, filename string) error {
	out := ir.IRObject{}
	for _, e := range p.Manifest.Classes {
		v, err := ir.FromValue(e.Decl)
		if err != nil {
			return fmt.Errorf("class %s: %w", e.Name, err)
		}
		out[e.Name] = v
	}
	data, err := ir.MarshalIndent(out)
	if err != nil {
		return fmt.Errorf("marshaling declarations: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
