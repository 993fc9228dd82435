package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a device by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid device id %q: %w", args[0], err)
		}

		var r infoReply
		if err := call(map[string]any{"cmd": "delete", "id": id}, &r); err != nil {
			return err
		}
		printInfoOrError(r)
		return nil
	},
}
