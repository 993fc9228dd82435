package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type neighborInfoReply struct {
	Info  string `json:"info"`
	Error string `json:"error"`
}

var neighborInfoCmd = &cobra.Command{
	Use:   "neighbor-info <id>",
	Short: "Show a device's link-layer neighbor table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid device id %q: %w", args[0], err)
		}

		var r neighborInfoReply
		if err := call(map[string]any{"cmd": "neighbor-info", "id": id}, &r); err != nil {
			return err
		}
		if r.Error != "" {
			fmt.Println(r.Error)
			return nil
		}
		fmt.Println(r.Info)
		return nil
	},
}
