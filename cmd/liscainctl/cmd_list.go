package main

import (
	"github.com/spf13/cobra"
)

var listFilterStates []string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all known devices",
	Long: `List all known devices.

Examples:
  liscainctl list
  liscainctl list -f READY -f CONFIGURE_FAILED`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var devices []deviceReply
		if err := call(map[string]string{"cmd": "list"}, &devices); err != nil {
			return err
		}
		printDevices(devices, listFilterStates)
		return nil
	},
}

func init() {
	listCmd.Flags().StringSliceVarP(&listFilterStates, "filter", "f", nil, "only show devices in these states (repeatable)")
}
