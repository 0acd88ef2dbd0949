package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bleikamp/ply/cli"
	"github.com/bleikamp/ply/logging"
	"github.com/bleikamp/ply/pkg/relayclient"
)

// NewTailCmd returns `ply tail`, which joins as a consumer and prints
// everything the relay sends.
func NewTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow events as an inspector would see them",
		Long: `Join the consumer channel and print every message until interrupted.

The first messages are always presence followed by the current snapshot.`,
		Example: `# Follow the local relay
ply tail

# Emit one JSON object per line
ply tail --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveAddr(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			stream, err := relayclient.New(addr).Consume(ctx)
			if err != nil {
				return err
			}
			defer stream.Close()

			jsonOutput := cli.GetOptions(cmd).JSONOutput
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())

			for {
				env, err := stream.Next(ctx)
				if err != nil {
					if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("connection lost: %w", err)
				}

				if jsonOutput {
					line, _ := json.Marshal(env)
					fmt.Fprintln(cmd.OutOrStdout(), string(line))
					continue
				}
				pretty.Event(env.Kind, string(env.Data))
			}
		},
	}

	addAddrFlag(cmd)
	return cmd
}
