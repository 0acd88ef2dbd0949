package logging

// Config defines the `logging` section of ply.yml.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the PLY_LOG_LEVEL environment variable.
	Level string `yaml:"level" json:"level,omitempty" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	// Can be enabled with the PLY_LOG_CALLER=true environment variable.
	ReportCaller bool `yaml:"report_caller" json:"report_caller,omitempty"`

	// Truncate caps the number of characters logged for forwarded request bodies.
	// Nil means the default; 0 disables truncation.
	Truncate *int `yaml:"truncate" json:"truncate,omitempty" jsonschema:"minimum=0"`

	// File configures logging to a file.
	File FileSinkConfig `yaml:"file" json:"file,omitempty"`

	// Format configures the appearance of the log output.
	Format FormatConfig `yaml:"format" json:"format,omitempty"`
}

// FileSinkConfig configures the file logging sink.
type FileSinkConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled,omitempty"`
	// Path is the full path to the log file.
	Path string `yaml:"path" json:"path,omitempty"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset can be "default" (rich text), "simple" (minimal text), or "json".
	Preset string `yaml:"preset" json:"preset,omitempty" jsonschema:"enum=default,enum=simple,enum=json"`
	// DisableTimestamp disables the timestamp from the "default" and "simple" formats.
	DisableTimestamp bool `yaml:"disable_timestamp" json:"disable_timestamp,omitempty"`
	// DisableComponent disables the component name from the "default" and "simple" formats.
	DisableComponent bool `yaml:"disable_component" json:"disable_component,omitempty"`
	// Stderr controls when logs are sent to stderr.
	// Can be "auto" (default), "always", or "never".
	Stderr string `yaml:"stderr" json:"stderr,omitempty" jsonschema:"enum=auto,enum=always,enum=never"`
}

// DefaultTruncate is the request body limit used when Truncate is unset.
const DefaultTruncate = 200

// TruncateLimit resolves the effective truncation limit.
func (c Config) TruncateLimit() int {
	if c.Truncate == nil {
		return DefaultTruncate
	}
	return *c.Truncate
}
