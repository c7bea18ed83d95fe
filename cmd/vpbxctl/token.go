package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vpbx-platform/internal/auth"
	"vpbx-platform/internal/config"
	"vpbx-platform/internal/rbac"
)

var tokenFlags struct {
	user string
	role string
	ttl  time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator API access token",
	Long:  `Sign an access token for the /v1 API with JWT_SECRET. Roles: operator, analyst, admin.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenFlags.user, "user", "", "user id to embed (required)")
	tokenCmd.Flags().StringVar(&tokenFlags.role, "role", rbac.RoleOperator, "role to grant")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 0, "token lifetime (default JWT_ACCESS_TTL)")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	if !rbac.IsKnown(tokenFlags.role) {
		return fmt.Errorf("unknown role %q", tokenFlags.role)
	}
	cfg, err := config.LoadAuth()
	if err != nil {
		return err
	}
	m, err := auth.NewManager(cfg)
	if err != nil {
		return err
	}
	tok, err := m.IssueAccess(time.Now(), tokenFlags.user, tokenFlags.role, tokenFlags.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
