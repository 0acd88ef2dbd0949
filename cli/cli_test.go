package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleikamp/ply/config"
	"github.com/bleikamp/ply/errors"
)

func TestStandardFlags(t *testing.T) {
	root := NewStandardCommand("ply", "test")
	child := &cobra.Command{Use: "child", RunE: func(*cobra.Command, []string) error { return nil }}
	root.AddCommand(child)

	root.SetArgs([]string{"child", "-v", "--json", "--config", "/tmp/ply.yml"})
	require.NoError(t, root.Execute())

	opts := GetOptions(child)
	assert.True(t, opts.Verbose)
	assert.True(t, opts.JSONOutput)
	assert.Equal(t, "/tmp/ply.yml", opts.ConfigFile)
}

func TestErrorHandlerMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.AlreadyRunning(42), "Relay already running (PID 42)"},
		{errors.ConfigNotFound("/x/ply.yml"), "Configuration not found: /x/ply.yml"},
		{errors.NoAvailableTarget("Highlight"), "No browser target is connected"},
		{errors.NotRunning("/tmp/relay.pid"), "Relay is not running"},
		{errors.New(errors.ErrCodeConfigValidation, "bad port"), "Invalid configuration"},
		{fmt.Errorf("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		h := &ErrorHandler{Out: &buf}
		assert.Equal(t, tt.err, h.Handle(tt.err))
		assert.Contains(t, buf.String(), tt.want)
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &buf}
	h.Handle(errors.AlreadyRunning(7))
	assert.Contains(t, buf.String(), `"code": "ALREADY_RUNNING"`)
}

func TestLoggingConfigFromExtension(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte("logging:\n  level: warn\n  truncate: 50\n"), config.FormatYAML)
	require.NoError(t, err)

	logCfg, err := LoggingConfig(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, "warn", logCfg.Level)
	assert.Equal(t, 50, logCfg.TruncateLimit())

	logCfg, err = LoggingConfig(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, "debug", logCfg.Level)
}

func TestLoggingSectionIsSchemaChecked(t *testing.T) {
	_, err := config.LoadFromBytes([]byte("logging:\n  levle: warn\n"), config.FormatYAML)
	assert.Error(t, err)
}

func TestRenderHelp(t *testing.T) {
	root := NewStandardCommand("ply", "Relay between browser agents and inspectors")
	root.AddCommand(&cobra.Command{Use: "tail", Short: "Print consumer events", Run: func(*cobra.Command, []string) {}})

	var buf bytes.Buffer
	renderHelp(&buf, root, 60)
	out := buf.String()
	assert.Contains(t, out, "PLY")
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "tail")
	assert.Contains(t, out, "--config")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "keep\nbreaks", wrapText("keep\nbreaks", 20))
}
