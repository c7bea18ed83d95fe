package main

import (
	"time"

	"github.com/spf13/cobra"

	"vpbx-platform/internal/calls"
	"vpbx-platform/internal/config"
	"vpbx-platform/internal/telephony"
	"vpbx-platform/internal/vpbx"
)

type clientConfig struct {
	baseURL string
	timeout time.Duration
}

func addClientFlags(cmd *cobra.Command, cfg *clientConfig) {
	cmd.Flags().StringVar(&cfg.baseURL, "base-url", "", "PBX API root (default VPBX_BASE_URL or the Mango endpoint)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 0, "per-request timeout (default VPBX_HTTP_TIMEOUT)")
}

func (cfg *clientConfig) newProvider() (*telephony.MangoProvider, error) {
	c, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	if cfg.baseURL != "" {
		c.VPBX.BaseURL = cfg.baseURL
	}
	if cfg.timeout > 0 {
		c.VPBX.HTTPTimeout = cfg.timeout
	}

	client := vpbx.NewClient(c.VPBX.Credentials(), vpbx.Options{
		BaseURL:      c.VPBX.BaseURL,
		Timeout:      c.VPBX.HTTPTimeout,
		PollAttempts: c.VPBX.StatsPollAttempts,
		PollInterval: c.VPBX.StatsPollInterval,
		Logger:       log,
	})
	return telephony.NewMangoProvider(client), nil
}

// newCallService validates call commands the same way the API does. The CLI
// keeps no journal.
func (cfg *clientConfig) newCallService() (*calls.Service, error) {
	p, err := cfg.newProvider()
	if err != nil {
		return nil, err
	}
	return calls.NewService(p, nil, log), nil
}
