package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/classier/internal/compiler"
)

// ManifestValidation is the validation outcome of one manifest.
type ManifestValidation struct {
	File    string    `json:"file"`
	Valid   bool      `json:"valid"`
	Classes int       `json:"classes,omitempty"`
	Error   *CLIError `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                 `json:"valid"`
	Manifests []ManifestValidation `json:"manifests"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest-or-dir>",
		Short: "Validate manifests without running them",
		Long: `Validate one manifest, or every .yaml, .yml and .cue manifest under a
directory: syntax, method sources, class and mixin references and
inheritance cycles. Each manifest is checked on its own runtime.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, err := FindManifestFiles(path)
	if err != nil {
		return commandError(formatter, err)
	}
	formatter.VerboseLog("Found %d manifest(s) in %s", len(files), path)

	result := ValidationResult{Valid: true}
	for _, file := range files {
		result.Manifests = append(result.Manifests, validateManifest(opts, file, cmd))
	}
	failed := 0
	for _, m := range result.Manifests {
		if !m.Valid {
			failed++
		}
	}
	result.Valid = failed == 0

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("%d manifest(s) invalid", failed)}
		}
		if err := formatter.Response(resp); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if failed > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%d manifest(s) invalid", failed))
	}
	return nil
}

func validateManifest(opts *RootOptions, file string, cmd *cobra.Command) ManifestValidation {
	session, err := NewSession(opts, cmd.ErrOrStderr())
	if err == nil {
		var p *compiler.Program
		if p, err = session.LoadProgram(file); err == nil {
			return ManifestValidation{File: file, Valid: true, Classes: len(p.Order)}
		}
	}
	code, message := describeError(err)
	return ManifestValidation{File: file, Error: &CLIError{Code: code, Message: message}}
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, m := range result.Manifests {
		if m.Valid {
			fmt.Fprintf(w, "✓ %s (%d class(es))\n", m.File, m.Classes)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", m.File)
		fmt.Fprintf(w, "  %s: %s\n", m.Error.Code, m.Error.Message)
	}
	if result.Valid {
		fmt.Fprintln(w, "\n✓ All manifests valid")
	}
}
