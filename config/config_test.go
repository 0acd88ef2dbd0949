package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleikamp/ply/errors"
)

type monitoringSection struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"interval"`
}

func init() {
	RegisterExtension("monitoring", monitoringSection{})
}

func TestLoadYAML(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
host: 0.0.0.0
port: 9000
relay:
  send_buffer: 64
  ping_interval: 15s
  scope_errors_to_requester: true
`), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 64, cfg.Relay.SendBuffer)
	assert.Equal(t, 15*time.Second, cfg.Relay.PingInterval.Std())
	assert.True(t, cfg.Relay.ScopeErrorsToRequester)
	// Unset fields get defaults.
	assert.Equal(t, DefaultWriteTimeout, cfg.Relay.WriteTimeout.Std())
	assert.Equal(t, int64(DefaultReadLimit), cfg.Relay.ReadLimit)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
}

func TestLoadTOML(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
port = 7000

[relay]
write_timeout = "2s"

[monitoring]
enabled = true
interval = 5
`), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.Relay.WriteTimeout.Std())

	var mon monitoringSection
	require.NoError(t, cfg.UnmarshalExtension("monitoring", &mon))
	assert.True(t, mon.Enabled)
	assert.Equal(t, 5, mon.Interval)
}

func TestEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Default().Addr(), cfg.Addr())
	assert.Equal(t, DefaultSendBuffer, cfg.Relay.SendBuffer)
}

func TestExtensions(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
port: 8081
monitoring:
  enabled: true
  interval: 30
`), FormatYAML)
	require.NoError(t, err)

	_, ok := cfg.Extensions["monitoring"]
	require.True(t, ok, "expected monitoring extension to be captured")
	assert.NotContains(t, cfg.Extensions, "port")

	var mon monitoringSection
	require.NoError(t, cfg.UnmarshalExtension("monitoring", &mon))
	assert.Equal(t, 30, mon.Interval)

	// Missing sections leave the target untouched.
	missing := monitoringSection{Interval: 1}
	require.NoError(t, cfg.UnmarshalExtension("absent", &missing))
	assert.Equal(t, 1, missing.Interval)
}

func TestSchemaRejectsUnknownKeys(t *testing.T) {
	_, err := LoadFromBytes([]byte("prot: 8080\n"), FormatYAML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation))
}

func TestSchemaRejectsBadTypes(t *testing.T) {
	_, err := LoadFromBytes([]byte("port: eighty\n"), FormatYAML)
	require.Error(t, err)

	_, err = LoadFromBytes([]byte("relay:\n  ping_interval: soon\n"), FormatYAML)
	require.Error(t, err)
}

func TestValidateHost(t *testing.T) {
	_, err := LoadFromBytes([]byte("host: not a host\n"), FormatYAML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation))
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("PLY_TEST_PORT", "9100")
	cfg, err := LoadFromBytes([]byte("port: ${PLY_TEST_PORT}\nhost: ${PLY_TEST_UNSET:-127.0.0.2}\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "127.0.0.2", cfg.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "ply.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestFindConfigFileWalksUp(t *testing.T) {
	t.Setenv("PLY_HOME", t.TempDir())
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	want := filepath.Join(root, "ply.toml")
	require.NoError(t, os.WriteFile(want, []byte("port = 8088\n"), 0644))

	got, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	cfg, path, err := LoadFrom(nested, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, 8088, cfg.Port)
}

func TestLoadFromWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("PLY_HOME", t.TempDir())
	cfg, path, err := LoadFrom(t.TempDir(), logrus.New())
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"host", "port", "pid_file", "relay", "monitoring"} {
		assert.Contains(t, props, key)
	}
}
