package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cueManifest = `classes: {
	Point: {
		x: 0
		y: 0
		"__id": "p"
	}
}
`

func TestValidateSingleManifest(t *testing.T) {
	dir := zooDir(t)

	out, _, err := execute(t, "validate", filepath.Join(dir, "zoo.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+filepath.Join(dir, "zoo.yaml")+" (2 class(es))")
	assert.Contains(t, out, "✓ All manifests valid")
}

func TestValidateDirectory(t *testing.T) {
	dir := zooDir(t)
	writeFile(t, dir, "shapes/point.cue", cueManifest)
	writeFile(t, dir, "notes.txt", "not a manifest")

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Manifests, 2)
	for _, m := range resp.Data.Manifests {
		assert.True(t, m.Valid, m.File)
	}
}

func TestValidateReportsEveryInvalidManifest(t *testing.T) {
	dir := zooDir(t)
	writeFile(t, dir, "cycle.yaml", `classes:
  A:
    _extends: B
  B:
    _extends: A
`)
	writeFile(t, dir, "orphan.yaml", `classes:
  Cat:
    _extends: Feline
`)

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, "2 manifest(s) invalid", resp.Error.Message)

	codes := map[string]string{}
	for _, m := range resp.Data.Manifests {
		if m.Error != nil {
			codes[filepath.Base(m.File)] = m.Error.Code
		}
	}
	assert.Equal(t, map[string]string{
		"cycle.yaml":  ErrCodeCycle,
		"orphan.yaml": ErrCodeUnknownRef,
	}, codes)
}

func TestValidateTextFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.yaml", `classes:
  Cat:
    speak: !js |
      function( {
`)

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+path)
	assert.NotContains(t, out, "All manifests valid")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, _, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestFindManifestFiles(t *testing.T) {
	dir := zooDir(t)
	writeFile(t, dir, "a/b.yml", "classes: {}\n")
	writeFile(t, dir, "a/c.CUE", cueManifest)
	writeFile(t, dir, "README.md", "# zoo")

	files, err := FindManifestFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{"zoo.yaml", "b.yml", "c.CUE"}, names)
}
