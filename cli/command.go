package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bleikamp/ply/config"
	"github.com/bleikamp/ply/errors"
	"github.com/bleikamp/ply/logging"
)

func init() {
	config.RegisterExtension("logging", logging.Config{})
}

// CommandOptions holds common options for ply commands
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard ply flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to ply.yml or ply.toml")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the CLI component logger adjusted for the command flags.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("ply-cli")

	opts := GetOptions(cmd)
	if opts.Verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	if opts.JSONOutput {
		entry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return entry
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the configuration named by --config, or searches for one
// from the working directory, and applies its logging section. The returned
// path is empty when defaults are in use.
func LoadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	opts := GetOptions(cmd)

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opts.ConfigFile != "" {
		path = opts.ConfigFile
		cfg, err = config.Load(path)
	} else {
		var cwd string
		cwd, err = os.Getwd()
		if err == nil {
			cfg, path, err = config.LoadFrom(cwd, logging.NewLogger("config").Logger)
		}
	}
	if err != nil {
		return nil, path, err
	}

	logCfg, err := LoggingConfig(cfg, opts.Verbose)
	if err != nil {
		return nil, path, err
	}
	logging.Configure(logCfg)

	return cfg, path, nil
}

// LoggingConfig decodes the logging section of cfg. verbose raises the level
// to debug.
func LoggingConfig(cfg *config.Config, verbose bool) (logging.Config, error) {
	var logCfg logging.Config
	if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
		return logging.Config{}, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid logging section")
	}
	if verbose {
		logCfg.Level = "debug"
	}
	return logCfg, nil
}
