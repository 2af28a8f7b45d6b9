package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/classier/internal/harness"
	"github.com/roach88/classier/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Member string // optional - filter to one member
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalSteps int            `json:"total_steps"`
	ByOp       map[string]int `json:"by_op"`
	Errors     int            `json:"errors"`
	Pass       bool           `json:"pass"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Scenario string          `json:"scenario"`
	Digest   string          `json:"digest"`
	Trace    json.RawMessage `json:"trace"`
	Stats    TraceStats      `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <scenario>",
		Short: "Run a scenario and show its trace",
		Long: `Run one scenario and print the trace of its steps: the operation, the
receiver and member, the arguments and the result or error kind.

The output includes:
- Timeline: the steps in order
- Stats: steps per operation and failed steps
- Digest: the trace digest, identical across runs of the same scenario

Examples:
  classier trace scenarios/dog.yaml
  classier trace scenarios/dog.yaml --member speak
  classier trace scenarios/dog.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Member, "member", "", "filter to steps on a member")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	scenario, result, err := runScenarioFile(opts.RootOptions, path, formatter)
	if err != nil {
		return commandError(formatter, err)
	}

	events := result.Trace
	if opts.Member != "" {
		events = filterByMember(events, opts.Member)
	}
	snapshot := harness.TraceSnapshot{ScenarioName: scenario.Name, Trace: events}
	traceIR := snapshot.IR()
	digest, err := ir.TraceDigest(traceIR)
	if err != nil {
		return commandError(formatter, err)
	}

	stats := calculateTraceStats(events, result.Pass)
	if formatter.JSON() {
		data, err := ir.MarshalCanonical(traceIR["trace"])
		if err != nil {
			return commandError(formatter, err)
		}
		return formatter.Success(TraceResult{
			Scenario: scenario.Name,
			Digest:   digest,
			Trace:    data,
			Stats:    stats,
		})
	}

	outputTraceText(formatter, scenario.Name, digest, events, stats)
	return nil
}

// runScenarioFile loads and runs a scenario with the CLI logger.
func runScenarioFile(opts *RootOptions, path string, formatter *OutputFormatter) (*harness.Scenario, *harness.Result, error) {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	result, err := harness.Run(scenario, harness.WithLogger(newLogger(formatter.GetErrWriter(), opts.Verbose)))
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeScenario, Message: err.Error()}
	}
	return scenario, result, nil
}

func filterByMember(events []harness.TraceEvent, member string) []harness.TraceEvent {
	var out []harness.TraceEvent
	for _, e := range events {
		if e.Member == member {
			out = append(out, e)
		}
	}
	return out
}

func calculateTraceStats(events []harness.TraceEvent, pass bool) TraceStats {
	stats := TraceStats{TotalSteps: len(events), ByOp: make(map[string]int), Pass: pass}
	for _, e := range events {
		stats.ByOp[e.Op]++
		if e.Error != "" {
			stats.Errors++
		}
	}
	return stats
}

func outputTraceText(formatter *OutputFormatter, name, digest string, events []harness.TraceEvent, stats TraceStats) {
	w := formatter.Writer

	fmt.Fprintf(w, "Trace for scenario: %s\n", name)
	fmt.Fprintf(w, "Digest: %s\n\n", digest)

	fmt.Fprintln(w, "Timeline:")
	if len(events) == 0 {
		fmt.Fprintln(w, "  (no steps)")
	}
	for _, e := range events {
		fmt.Fprintf(w, "  [%d] %s\n", e.Seq, describeEvent(e))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Stats: %d step(s), %d error(s)", stats.TotalSteps, stats.Errors)
	if stats.Pass {
		fmt.Fprintln(w, ", all expectations held")
	} else {
		fmt.Fprintln(w, ", expectations failed")
	}
}

// describeEvent renders one step as "op target.member(args) -> outcome".
func describeEvent(e harness.TraceEvent) string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Target != "" {
		b.WriteString(" " + e.Target)
	}
	if e.Member != "" {
		b.WriteString("." + e.Member)
	}
	if len(e.Args) > 0 {
		args, err := ir.MarshalCanonical(e.Args)
		if err == nil {
			b.WriteString(" " + string(args))
		}
	}
	switch {
	case e.Error != "":
		b.WriteString(" -> error " + e.Error)
	case e.Result != nil:
		if res, err := ir.MarshalCanonical(e.Result); err == nil {
			b.WriteString(" -> " + string(res))
		}
	}
	return b.String()
}
