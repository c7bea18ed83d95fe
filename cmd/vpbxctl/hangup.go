package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vpbx-platform/internal/audit"
	"vpbx-platform/internal/telephony"
)

var hangupFlags struct {
	clientConfig
	commandID string
}

var hangupCmd = &cobra.Command{
	Use:   "hangup <call-id>",
	Short: "End an active call",
	Args:  cobra.ExactArgs(1),
	RunE:  runHangup,
}

func init() {
	rootCmd.AddCommand(hangupCmd)

	addClientFlags(hangupCmd, &hangupFlags.clientConfig)
	hangupCmd.Flags().StringVar(&hangupFlags.commandID, "command-id", "", "idempotency token (derived from the payload when empty)")
}

func runHangup(cmd *cobra.Command, args []string) error {
	svc, err := hangupFlags.newCallService()
	if err != nil {
		return err
	}
	res, err := svc.Hangup(cmd.Context(), audit.Actor{}, telephony.HangupRequest{CallID: args[0], CommandID: hangupFlags.commandID})
	if err != nil {
		if res.CommandID != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "command_id: %s\n", res.CommandID)
		}
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
