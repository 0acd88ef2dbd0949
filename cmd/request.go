package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bleikamp/ply/errors"
	"github.com/bleikamp/ply/logging"
	"github.com/bleikamp/ply/pkg/relayclient"
)

const requestTimeout = 10 * time.Second

// NewRequestCmd returns `ply request`, which sends one consumer request.
func NewRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request <kind> [json-data]",
		Short: "Send a request to the connected browser agents",
		Long: `Send one request on the consumer channel. The relay forwards it to
every producer unchanged, or answers with an error when none is connected.`,
		Example: `# Highlight a node
ply request Highlight '{"nodeId":42}'

# A request without a payload
ply request ClearHighlight`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveAddr(cmd)
			if err != nil {
				return err
			}

			var data json.RawMessage
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return errors.New(errors.ErrCodeInvalidInput, "request data is not valid JSON").
						WithDetail("data", args[1])
				}
				data = json.RawMessage(args[1])
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			if err := relayclient.New(addr).Request(ctx, args[0], data); err != nil {
				return err
			}

			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("Sent %s", args[0]))
			return nil
		},
	}

	addAddrFlag(cmd)
	return cmd
}
