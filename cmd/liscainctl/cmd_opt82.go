package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/liscain-net/liscain/pkg/cli"
)

// associationReply mirrors pkg/rpc's associationDict wire shape.
type associationReply struct {
	ID                   int64   `json:"id"`
	UpstreamSwitchMAC    string  `json:"upstream_switch_mac"`
	UpstreamPortInfo     string  `json:"upstream_port_info"`
	DownstreamSwitchMAC  *string `json:"downstream_switch_mac"`
	DownstreamSwitchName *string `json:"downstream_switch_name"`
	Error                string  `json:"error"`
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func printAssociations(associations []associationReply) {
	if jsonOut {
		_ = json.NewEncoder(os.Stdout).Encode(associations)
		return
	}

	t := cli.NewTable("id", "upstream_switch_mac", "upstream_port_info", "downstream_switch_mac", "downstream_switch_name")
	for _, a := range associations {
		t.Row(strconv.FormatInt(a.ID, 10), a.UpstreamSwitchMAC, a.UpstreamPortInfo,
			derefOr(a.DownstreamSwitchMAC, ""), derefOr(a.DownstreamSwitchName, ""))
	}
	t.Flush()
}

var opt82Cmd = &cobra.Command{
	Use:   "opt82",
	Short: "Manage Option-82 relay associations",
}

var opt82ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all Option-82 associations",
	RunE: func(cmd *cobra.Command, args []string) error {
		var associations []associationReply
		if err := call(map[string]string{"cmd": "opt82-list"}, &associations); err != nil {
			return err
		}
		printAssociations(associations)
		return nil
	},
}

var opt82DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an Option-82 association by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid association id %q: %w", args[0], err)
		}
		var r infoReply
		if err := call(map[string]any{"cmd": "opt82-delete", "id": id}, &r); err != nil {
			return err
		}
		printInfoOrError(r)
		return nil
	},
}

var (
	opt82UpstreamMAC    string
	opt82UpstreamPort   string
	opt82DownstreamName string
)

var opt82SetCmd = &cobra.Command{
	Use:   "set",
	Short: "Bind an upstream switch/port to a downstream switch name",
	Long: `Record which downstream switch name is relayed through an
upstream switch MAC + port pair.

Examples:
  liscainctl opt82 set -m 00:11:22:33:44:55 -p GigabitEthernet0/1 -n leaf1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if opt82UpstreamMAC == "" || opt82UpstreamPort == "" {
			return fmt.Errorf("upstream mac and port are required when setting option82 info")
		}

		req := map[string]any{
			"cmd":                 "opt82-info",
			"upstream_switch_mac": opt82UpstreamMAC,
			"upstream_port_info":  opt82UpstreamPort,
		}
		if opt82DownstreamName != "" {
			req["downstream_switch_name"] = opt82DownstreamName
		}

		var a associationReply
		if err := call(req, &a); err != nil {
			return err
		}
		if a.Error != "" {
			fmt.Println(a.Error)
			return nil
		}
		printAssociations([]associationReply{a})
		return nil
	},
}

func init() {
	opt82SetCmd.Flags().StringVarP(&opt82UpstreamMAC, "upstream-mac", "m", "", "upstream switch MAC, 0a:0b:1c:3d:e0:ff format")
	opt82SetCmd.Flags().StringVarP(&opt82UpstreamPort, "upstream-port", "p", "", "upstream port, free format")
	opt82SetCmd.Flags().StringVarP(&opt82DownstreamName, "downstream-name", "n", "", "downstream switch name")

	opt82Cmd.AddCommand(opt82ListCmd, opt82DeleteCmd, opt82SetCmd)
}
