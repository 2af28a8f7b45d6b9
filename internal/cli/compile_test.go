package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileText(t *testing.T) {
	dir := zooDir(t)

	out, _, err := execute(t, "compile", filepath.Join(dir, "zoo.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 2 class(es)")
	assert.Contains(t, out, "Dog extends Animal:")
	assert.Contains(t, out, "digest ")
}

func TestCompileJSON(t *testing.T) {
	dir := zooDir(t)

	out, _, err := execute(t, "--format", "json", "compile", filepath.Join(dir, "zoo.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Classes, 2)

	byName := map[string]ClassSummary{}
	for _, c := range resp.Data.Classes {
		byName[c.Name] = c
		assert.Len(t, c.Digest, 64)
	}

	// Parents are defined before their children.
	assert.Equal(t, "Animal", resp.Data.Classes[0].Name)

	animal := byName["Animal"]
	assert.Empty(t, animal.Parent)
	assert.True(t, animal.Deep, "tags is a structured default")
	assert.Equal(t, "private", animal.Members["__legs"])
	assert.Equal(t, "public", animal.Members["kind"])
	assert.NotContains(t, animal.Members, "__include__")

	dog := byName["Dog"]
	assert.Equal(t, "Animal", dog.Parent)
	assert.Equal(t, "public", dog.Members["speak"])
}

func TestCompileOutputToFile(t *testing.T) {
	dir := zooDir(t)
	outputFile := filepath.Join(t.TempDir(), "classes.json")

	out, _, err := execute(t, "compile", filepath.Join(dir, "zoo.yaml"), "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical declarations to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "Animal")
	assert.Contains(t, decoded, "Dog")
}

func TestCompileDigestStable(t *testing.T) {
	dir := zooDir(t)
	path := filepath.Join(dir, "zoo.yaml")

	first, _, err := execute(t, "compile", path)
	require.NoError(t, err)
	second, _, err := execute(t, "compile", path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantCode string
	}{
		{
			name: "unknown parent",
			manifest: `classes:
  Cat:
    _extends: Feline
`,
			wantCode: ErrCodeUnknownRef,
		},
		{
			name: "inheritance cycle",
			manifest: `classes:
  A:
    _extends: B
  B:
    _extends: A
`,
			wantCode: ErrCodeCycle,
		},
		{
			name: "syntax error",
			manifest: `classes: [unclosed
`,
			wantCode: ErrCodeLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.yaml", tt.manifest)

			out, _, err := execute(t, "--format", "json", "compile", path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCompileMissingManifest(t *testing.T) {
	out, _, err := execute(t, "compile", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
