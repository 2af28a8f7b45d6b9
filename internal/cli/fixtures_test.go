package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const zooManifest = `settings:
  enforceVisibility: true

mixins:
  Named:
    label: !js |
      function() { return this.kind + ":" + this.name; }

classes:
  Dog:
    _extends: Animal
    kind: dog
    speak: !js |
      function() { return this._super() + "!"; }

  Animal:
    kind: animal
    name: ""
    __legs: 4
    tags: []
    __include__: [Named]
    init: !js |
      function(name) { this.name = name; }
    speak: !js |
      function() { return this.name + " has " + this.__legs + " legs"; }
    tag: !js |
      function(t) { this.tags.push(t); return this.tags.length; }
`

const dogScenario = `name: dog_speaks
description: "A dog speaks through its parent"
specs:
  - zoo.yaml
steps:
  - new: Dog
    args: ["rex"]
    as: rex
  - call: speak
    on: "@rex"
    expect: "rex has 4 legs!"
  - call: tag
    on: "@rex"
    args: ["good"]
    expect: 1
  - get: __legs
    on: "@rex"
    error: access_denied
`

const failingScenario = `name: dog_lies
description: "An expectation that does not hold"
specs:
  - zoo.yaml
steps:
  - new: Dog
    args: ["rex"]
    as: rex
  - call: speak
    on: "@rex"
    expect: "meow"
`

// writeFile writes content under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// zooDir returns a temp directory holding the zoo manifest.
func zooDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "zoo.yaml", zooManifest)
	return dir
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeCmd(t, NewRootCommand(), args...)
}

func executeCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
