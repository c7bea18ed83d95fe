package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vpbx-platform/pkg/logger"
)

var log *slog.Logger

var rootFlags struct {
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "vpbxctl",
	Short: "Operate a Mango Office virtual PBX from the command line",
	Long: `vpbxctl sends signed commands to the virtual PBX HTTP API: start and
end calls, export call statistics and mint operator API tokens.

Credentials come from VPBX_API_KEY and VPBX_API_SALT (or a .env file).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootFlags.verbose {
			log = logger.NewWithWriter(os.Stderr, "dev")
		} else {
			log = logger.Discard()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "log provider exchanges to stderr")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
