package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var reinitCmd = &cobra.Command{
	Use:   "reinit <id>",
	Short: "Re-run init on a device (back to INIT)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid device id %q: %w", args[0], err)
		}

		var r infoReply
		if err := call(map[string]any{"cmd": "reinit", "id": id}, &r); err != nil {
			return err
		}
		printInfoOrError(r)
		return nil
	},
}
