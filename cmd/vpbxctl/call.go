package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vpbx-platform/internal/audit"
	"vpbx-platform/internal/telephony"
)

var callFlags struct {
	clientConfig
	caller    string
	commandID string
}

var callCmd = &cobra.Command{
	Use:   "call <from-extension> <to-number>",
	Short: "Ring an extension and connect it to a number",
	Args:  cobra.ExactArgs(2),
	RunE:  runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	addClientFlags(callCmd, &callFlags.clientConfig)
	callCmd.Flags().StringVar(&callFlags.caller, "caller", "", "number or SIP URI shown to the callee")
	callCmd.Flags().StringVar(&callFlags.commandID, "command-id", "", "idempotency token (derived from the payload when empty)")
}

func runCall(cmd *cobra.Command, args []string) error {
	svc, err := callFlags.newCallService()
	if err != nil {
		return err
	}
	res, err := svc.Place(cmd.Context(), audit.Actor{}, telephony.PlaceCallRequest{
		FromExtension: args[0],
		ToNumber:      args[1],
		CallerNumber:  callFlags.caller,
		CommandID:     callFlags.commandID,
	})
	if err != nil {
		if res.CommandID != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "command_id: %s\n", res.CommandID)
		}
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
