package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	adoptNoWait  bool
	adoptConfDir string
)

var adoptCmd = &cobra.Command{
	Use:   "adopt <id> <identity> [config-file]",
	Short: "Adopt a device by id, assigning it identity and its configuration",
	Long: `Adopt a device by id, assigning it identity and pushing its
configuration. If config-file is omitted, "<config-dir>/<identity>.cfg"
is read instead.

Examples:
  liscainctl adopt 12 leaf1
  liscainctl adopt 12 leaf1 ./leaf1.cfg`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid device id %q: %w", args[0], err)
		}
		identity := args[1]

		configPath := args[1] + ".cfg"
		if len(args) == 3 {
			configPath = args[2]
		} else if adoptConfDir != "" {
			configPath = filepath.Join(adoptConfDir, identity+".cfg")
		}

		return adoptDevice(id, identity, configPath)
	},
}

var adoptByMACCmd = &cobra.Command{
	Use:   "adopt-by-mac <mac> <identity>",
	Short: "Adopt the one READY/CONFIGURE_FAILED device whose MAC contains mac",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mac := strings.ToLower(strings.ReplaceAll(args[0], ":", ""))
		identity := args[1]

		var devices []deviceReply
		if err := call(map[string]string{"cmd": "list"}, &devices); err != nil {
			return err
		}

		var matches []int64
		for _, d := range devices {
			if d.State != "READY" && d.State != "CONFIGURE_FAILED" {
				continue
			}
			if strings.Contains(strings.ToLower(strings.ReplaceAll(d.MACAddress, ":", "")), mac) {
				matches = append(matches, d.ID)
			}
		}

		switch len(matches) {
		case 0:
			return fmt.Errorf("no mac_address matches")
		case 1:
			configPath := identity + ".cfg"
			if adoptConfDir != "" {
				configPath = filepath.Join(adoptConfDir, identity+".cfg")
			}
			return adoptDevice(matches[0], identity, configPath)
		default:
			return fmt.Errorf("multiple mac_address matches: %v", matches)
		}
	},
}

func init() {
	for _, cmd := range []*cobra.Command{adoptCmd, adoptByMACCmd} {
		cmd.Flags().BoolVar(&adoptNoWait, "nowait", false, "don't wait for adoption to finish")
		cmd.Flags().StringVar(&adoptConfDir, "config-dir", "", "directory to read <identity>.cfg from")
	}
}

func adoptDevice(id int64, identity, configPath string) error {
	contents, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	var d deviceReply
	if err := call(map[string]any{"cmd": "adopt", "id": id, "identity": identity, "config": string(contents)}, &d); err != nil {
		return err
	}

	if adoptNoWait {
		printDevice(d)
		return nil
	}

	fmt.Print("adopting")
	for {
		fmt.Print(".")
		if err := call(map[string]any{"cmd": "status", "id": id}, &d); err != nil {
			fmt.Println()
			return err
		}
		if d.State != "CONFIGURING" {
			break
		}
		time.Sleep(time.Second)
	}
	fmt.Println()
	printDevice(d)
	return nil
}
