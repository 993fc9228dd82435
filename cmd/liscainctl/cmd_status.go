package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show one device's current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid device id %q: %w", args[0], err)
		}

		var d deviceReply
		if err := call(map[string]any{"cmd": "status", "id": id}, &d); err != nil {
			return err
		}
		printDevice(d)
		return nil
	},
}
