package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "classier", cmd.Use)
	assert.Contains(t, cmd.Long, "private and protected")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "validate", "invoke", "test", "trace", "replay", "settings", "repl"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	settingsFlag := cmd.PersistentFlags().Lookup("settings")
	require.NotNil(t, settingsFlag)
	assert.Equal(t, "", settingsFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command  string
		flag     string
		defValue string
	}{
		{"compile", "output", ""},
		{"invoke", "new", "[]"},
		{"invoke", "args", "[]"},
		{"invoke", "query", ""},
		{"test", "update", "false"},
		{"test", "filter", ""},
		{"trace", "member", ""},
		{"replay", "runs", "2"},
	}

	cmd := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			flag := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, flag)
			assert.Equal(t, tt.defValue, flag.DefValue)
		})
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := execute(t, "--format", "invalid", "validate", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
