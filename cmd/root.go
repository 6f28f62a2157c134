/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/jellyctl/internal/config"
	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jellyctl",
	Short: "Command-line client for Jellyfin media servers",
	Long: `jellyctl is a command-line client for Jellyfin media servers.

It signs in to a server, remembers the session across runs, and provides
commands to search the library, inspect and remote-control playback
sessions, and follow server events live.

Run 'jellyctl login' once to connect to a server; every other command
reuses the stored session.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags can be added here if needed
}

// newAPIClient builds an API client from the stored configuration.
// No session is established; use loadSession for authenticated access.
func newAPIClient(cfg *config.Config) (*jellyfin.Client, error) {
	return jellyfin.NewClient(jellyfin.Config{
		AppName:            "jellyctl",
		AppVersion:         version,
		DeviceName:         cfg.DeviceName,
		DeviceID:           cfg.DeviceID,
		InsecureSkipVerify: cfg.Insecure,
		Timeout:            time.Duration(cfg.Timeout) * time.Second,
	})
}

// loadSession restores the stored session: config, credentials file, and
// an authenticated client. Commands that talk to the server start here.
func loadSession(ctx context.Context) (*jellyfin.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	creds, err := cfg.ReadCredentials()
	if err != nil {
		return nil, nil, err
	}
	if len(creds.Servers) == 0 {
		return nil, nil, fmt.Errorf("no stored session. Run 'jellyctl login' first")
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	// The stored address was reachable last time; trust it and let the
	// first real call surface any problem.
	if _, err := client.Authenticate(ctx, creds, false); err != nil {
		return nil, nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return client, cfg, nil
}

// saveSession persists the client's credential store back to disk so the
// next invocation picks up refreshed tokens and access times.
func saveSession(client *jellyfin.Client, cfg *config.Config) error {
	return cfg.WriteCredentials(client.Credentials().Export())
}
