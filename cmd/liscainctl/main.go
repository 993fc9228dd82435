// liscainctl is the operator CLI for liscaind: it sends one JSON command
// per invocation over the command RPC subject and prints the reply.
//
// Usage:
//
//	liscainctl list
//	liscainctl status 12
//	liscainctl adopt 12 leaf1 leaf1.cfg
//	liscainctl opt82 list
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	natsURL string
	subject string
	timeout string
	jsonOut bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "liscainctl",
	Short:         "Control liscaind over its command RPC subject",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&natsURL, "nats-url", "u", "nats://127.0.0.1:4222", "nats server URL")
	rootCmd.PersistentFlags().StringVarP(&subject, "subject", "s", "liscain.cmd", "command RPC subject")
	rootCmd.PersistentFlags().StringVarP(&timeout, "timeout", "t", "5s", "request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print raw JSON replies")

	rootCmd.AddCommand(
		listCmd,
		statusCmd,
		neighborInfoCmd,
		deleteCmd,
		adoptCmd,
		adoptByMACCmd,
		reinitCmd,
		opt82Cmd,
	)
}
