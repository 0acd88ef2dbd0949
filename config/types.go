package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Config is the relay's static configuration, read once at start-up.
type Config struct {
	// Host is the interface the relay listens on.
	Host string `yaml:"host" toml:"host" json:"host,omitempty" jsonschema:"description=Interface to listen on (default 127.0.0.1)"`
	// Port is the TCP port for both channels and the debug API.
	Port int `yaml:"port" toml:"port" json:"port,omitempty" jsonschema:"minimum=0,maximum=65535,description=Listening port (default 8080)"`
	// PidFile overrides the default pid file location.
	PidFile string `yaml:"pid_file" toml:"pid_file" json:"pid_file,omitempty" jsonschema:"description=Path of the relay pid file"`
	// Relay tunes the transport binding.
	Relay RelayConfig `yaml:"relay" toml:"relay" json:"relay,omitempty" jsonschema:"description=Transport tuning"`

	// Extensions holds sections owned by other packages (e.g. logging).
	Extensions map[string]interface{} `yaml:"-" toml:"-" json:"-"`
}

// RelayConfig tunes per-connection transport behaviour.
type RelayConfig struct {
	// SendBuffer is the outbound queue length per connection.
	SendBuffer int `yaml:"send_buffer" toml:"send_buffer" json:"send_buffer,omitempty" jsonschema:"minimum=1"`
	// ReadLimit is the largest accepted inbound frame in bytes.
	ReadLimit int64 `yaml:"read_limit" toml:"read_limit" json:"read_limit,omitempty" jsonschema:"minimum=1"`
	// PingInterval is how often idle connections are pinged.
	PingInterval Duration `yaml:"ping_interval" toml:"ping_interval" json:"ping_interval,omitempty"`
	// WriteTimeout bounds a single frame write.
	WriteTimeout Duration `yaml:"write_timeout" toml:"write_timeout" json:"write_timeout,omitempty"`
	// ScopeErrorsToRequester sends no-target errors to the requesting
	// consumer only instead of every consumer.
	ScopeErrorsToRequester bool `yaml:"scope_errors_to_requester" toml:"scope_errors_to_requester" json:"scope_errors_to_requester,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText writes the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// JSONSchema describes Duration as a string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration string, e.g. 30s",
	}
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8080
	DefaultSendBuffer   = 256
	DefaultReadLimit    = 4 << 20
	DefaultPingInterval = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Relay.SendBuffer == 0 {
		c.Relay.SendBuffer = DefaultSendBuffer
	}
	if c.Relay.ReadLimit == 0 {
		c.Relay.ReadLimit = DefaultReadLimit
	}
	if c.Relay.PingInterval == 0 {
		c.Relay.PingInterval = Duration(DefaultPingInterval)
	}
	if c.Relay.WriteTimeout == 0 {
		c.Relay.WriteTimeout = Duration(DefaultWriteTimeout)
	}
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UnmarshalExtension decodes a section owned by another package into target,
// which must be a pointer. A missing section leaves target untouched.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
