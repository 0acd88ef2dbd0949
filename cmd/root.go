// Package cmd holds the ply command tree.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bleikamp/ply/cli"
	"github.com/bleikamp/ply/config"
)

// NewRootCmd builds the ply command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("ply", "Live DOM inspection relay")
	root.Long = `ply relays live DOM snapshots from browser agents to inspector UIs.

Browser agents connect as producers and stream document, style and
inspection-root events. Inspector UIs connect as consumers, receive the
current snapshot on join, and send requests back to the agents.`

	root.AddCommand(NewRelayCmd())
	root.AddCommand(NewTailCmd())
	root.AddCommand(NewRequestCmd())
	root.AddCommand(NewStateCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(NewPathsCmd())
	root.AddCommand(cli.NewVersionCommand("ply"))

	return root
}

// addAddrFlag registers --addr on a command that talks to a running relay.
func addAddrFlag(cmd *cobra.Command) {
	cmd.Flags().String("addr", "", "Relay address as host:port (defaults to the configured listen address)")
}

// resolveAddr returns --addr when set, otherwise the configured address.
func resolveAddr(cmd *cobra.Command) (string, error) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		return addr, nil
	}
	cfg, _, err := cli.LoadConfig(cmd)
	if err != nil {
		return "", err
	}
	return clientAddr(cfg), nil
}

// clientAddr turns a listen address into one a local client can dial.
func clientAddr(cfg *config.Config) string {
	addr := cfg.Addr()
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "127.0.0.1" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return addr
}
