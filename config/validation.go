package config

import (
	"fmt"
	"net"

	"github.com/bleikamp/ply/errors"
)

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("port %d out of range", c.Port)).
			WithDetail("port", c.Port)
	}
	if c.Host != "" && c.Host != "localhost" && net.ParseIP(c.Host) == nil {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("host %q is not an IP address", c.Host)).
			WithDetail("host", c.Host)
	}
	if c.Relay.SendBuffer < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "relay.send_buffer cannot be negative")
	}
	if c.Relay.ReadLimit < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "relay.read_limit cannot be negative")
	}
	if c.Relay.PingInterval < 0 || c.Relay.WriteTimeout < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "relay durations cannot be negative")
	}
	return nil
}
