package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings [manifest]",
		Short: "Print the effective settings",
		Long: `Print the settings a runtime would use: the defaults, then the --settings
file, then the settings section of the manifest when one is given.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest := ""
			if len(args) == 1 {
				manifest = args[0]
			}
			return runSettings(rootOpts, manifest, cmd)
		},
	}
	return cmd
}

func runSettings(opts *RootOptions, manifest string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	session, err := NewSession(opts, cmd.ErrOrStderr())
	if err != nil {
		return commandError(formatter, err)
	}
	if manifest != "" {
		if _, err := session.LoadProgram(manifest); err != nil {
			return commandError(formatter, err)
		}
	}

	settings := session.Runtime.Config().Current().Map()
	if formatter.JSON() {
		return formatter.Success(settings)
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(formatter.Writer, "%s: %v\n", k, settings[k])
	}
	return nil
}
