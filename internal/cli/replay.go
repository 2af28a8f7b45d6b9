package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/classier/internal/harness"
	"github.com/roach88/classier/internal/ir"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Runs int
}

// ReplayResult holds the result of replaying a scenario.
type ReplayResult struct {
	Scenario      string   `json:"scenario"`
	Runs          int      `json:"runs"`
	Digests       []string `json:"digests"`
	Deterministic bool     `json:"deterministic"`
	// FirstDivergence is the run whose digest first differed from run 1.
	FirstDivergence int `json:"first_divergence,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario>",
		Short: "Re-run a scenario and verify its trace is deterministic",
		Long: `Run a scenario several times, each on a fresh runtime, and compare the
trace digests. Object IDs, step numbers and canonical values must make
every run byte-identical.

Exit codes:
  0 - Every run produced the same trace
  1 - Traces differ between runs
  2 - Command error

Examples:
  classier replay scenarios/dog.yaml
  classier replay scenarios/dog.yaml --runs 5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Runs, "runs", 2, "number of runs to compare")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Runs < 2 {
		return commandError(formatter, &LoadError{Code: ErrCodeGeneric, Message: "--runs must be at least 2"})
	}

	result := ReplayResult{Runs: opts.Runs, Deterministic: true}
	for i := 1; i <= opts.Runs; i++ {
		scenario, run, err := runScenarioFile(opts.RootOptions, path, formatter)
		if err != nil {
			return commandError(formatter, err)
		}
		result.Scenario = scenario.Name

		snapshot := harness.TraceSnapshot{ScenarioName: scenario.Name, Trace: run.Trace}
		digest, err := ir.TraceDigest(snapshot.IR())
		if err != nil {
			return commandError(formatter, err)
		}
		formatter.VerboseLog("Run %d: %s", i, digest)

		result.Digests = append(result.Digests, digest)
		if result.Deterministic && digest != result.Digests[0] {
			result.Deterministic = false
			result.FirstDivergence = i
		}
	}

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Deterministic {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeNonDeterm, Message: fmt.Sprintf("run %d diverged", result.FirstDivergence)}
		}
		if err := formatter.Response(resp); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, result)
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("non-deterministic trace: run %d diverged", result.FirstDivergence))
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "Replayed %s %d time(s)\n", result.Scenario, result.Runs)
	if result.Deterministic {
		fmt.Fprintf(w, "✓ Deterministic (digest %s)\n", result.Digests[0])
		return
	}
	fmt.Fprintf(w, "✗ Non-deterministic: run %d diverged\n", result.FirstDivergence)
	for i, d := range result.Digests {
		fmt.Fprintf(w, "  run %d: %s\n", i+1, d)
	}
}
