package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bleikamp/ply/cli"
	"github.com/bleikamp/ply/config"
)

// NewConfigCmd returns `ply config` with its schema and show subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect relay configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for ply.yml",
		Long:  "Print the JSON Schema for the configuration file, including every registered extension section.",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after defaults and environment expansion, as the relay would use it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			view := effectiveConfig(cfg)

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(view, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			if path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
			}
			data, err := yaml.Marshal(view)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	return cmd
}

// effectiveConfig merges the typed fields and extension sections into one
// document.
func effectiveConfig(cfg *config.Config) map[string]interface{} {
	view := map[string]interface{}{
		"host":  cfg.Host,
		"port":  cfg.Port,
		"relay": cfg.Relay,
	}
	if cfg.PidFile != "" {
		view["pid_file"] = cfg.PidFile
	}
	for k, v := range cfg.Extensions {
		view[k] = v
	}
	return view
}
