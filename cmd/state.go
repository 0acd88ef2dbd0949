package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bleikamp/ply/cli"
	"github.com/bleikamp/ply/logging"
	"github.com/bleikamp/ply/pkg/relayclient"
)

// NewStateCmd returns `ply state`, which prints the relay's shared snapshot.
func NewStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the shared snapshot and connection counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveAddr(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			resp, err := relayclient.New(addr).State(ctx)
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pretty.Field("Producers", resp.Connections.Producers)
			pretty.Field("Consumers", resp.Connections.Consumers)
			root := "none"
			if len(resp.State.InspectionRoot) > 0 && string(resp.State.InspectionRoot) != "null" {
				root = string(resp.State.InspectionRoot)
			}
			pretty.Field("Inspection root", root)
			pretty.Field("Nodes", len(resp.State.Nodes))
			pretty.Field("Styles", len(resp.State.Styles))
			return nil
		},
	}

	addAddrFlag(cmd)
	return cmd
}
