// Command classier defines classes from manifests and runs scenarios
// against them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/classier/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands report their own failures; usage errors arrive bare.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
