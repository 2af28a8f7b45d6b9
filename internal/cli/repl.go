package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/classier/internal/harness"
)

const (
	replPrompt  = "classier> "
	historyFile = ".classier_history"
)

const replHelp = `Each line is one scenario step as a YAML mapping:
  {new: Dog, args: [rex], as: rex}
  {call: speak, on: "@rex"}
  {get: __legs, on: "@rex", error: access_denied}
  {extend: Dog, decl: {_class: Puppy}, as: Puppy}

Commands:
  :classes  list the classes of the loaded manifests
  :trace    print the steps run so far
  :help     show this help
  :quit     exit`

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl <manifest>...",
		Short: "Run scenario steps interactively",
		Long: `Load manifests into a fresh runtime and read scenario steps from the
terminal, one per line, printing each step as the trace records it.

History is kept in ~/` + historyFile + `.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runRepl(opts *RootOptions, manifests []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	for _, m := range manifests {
		if _, err := os.Stat(m); err != nil {
			return commandError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("manifest not found: %s", m)})
		}
	}
	session, err := harness.NewSession(manifests, harness.WithLogger(newLogger(formatter.GetErrWriter(), opts.Verbose)))
	if err != nil {
		return commandError(formatter, &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()})
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(formatter.Writer, "Loaded %d class(es). Type :help for help.\n", len(session.Classes()))
	prompt := func() (string, error) {
		line, err := ln.Prompt(replPrompt)
		if err == nil && strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		return line, err
	}
	return replLoop(session, prompt, formatter.Writer)
}

// replLoop reads lines until :quit or end of input. A Ctrl-C abort
// discards the current line.
func replLoop(session *harness.Session, prompt func() (string, error), w io.Writer) error {
	for {
		line, err := prompt()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(w)
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == ":quit":
			return nil
		case strings.HasPrefix(line, ":"):
			replCommand(session, line, w)
			continue
		}

		step, err := harness.ParseStep(line)
		if err != nil {
			fmt.Fprintf(w, "✗ %v\n", err)
			continue
		}
		event, failures, err := session.Exec(step)
		if err != nil {
			fmt.Fprintf(w, "✗ %v\n", err)
			continue
		}
		fmt.Fprintf(w, "[%d] %s\n", event.Seq, describeEvent(event))
		for _, f := range failures {
			fmt.Fprintf(w, "✗ %s\n", f)
		}
	}
}

func replCommand(session *harness.Session, line string, w io.Writer) {
	switch line {
	case ":help":
		fmt.Fprintln(w, replHelp)
	case ":classes":
		for _, name := range session.Classes() {
			fmt.Fprintln(w, name)
		}
	case ":trace":
		for _, e := range session.Result().Trace {
			fmt.Fprintf(w, "[%d] %s\n", e.Seq, describeEvent(e))
		}
	default:
		fmt.Fprintf(w, "unknown command %s. Type :help for help.\n", line)
	}
}
