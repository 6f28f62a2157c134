package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// serverinfoCmd represents the serverinfo command
var serverinfoCmd = &cobra.Command{
	Use:   "serverinfo",
	Short: "Show information about the connected server",
	RunE:  runServerInfo,
}

func init() {
	rootCmd.AddCommand(serverinfoCmd)
}

func runServerInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, cfg, err := loadSession(ctx)
	if err != nil {
		return err
	}

	info, err := client.System().Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch server info: %w", err)
	}
	if err := saveSession(client, cfg); err != nil {
		return err
	}

	fmt.Printf("Server:           %s\n", info.ServerName)
	fmt.Printf("Version:          %s\n", info.Version)
	fmt.Printf("Id:               %s\n", info.ID)
	if info.OperatingSystem != "" {
		fmt.Printf("Operating system: %s\n", info.OperatingSystem)
	}
	if info.LocalAddress != "" {
		fmt.Printf("Local address:    %s\n", info.LocalAddress)
	}

	// A round trip through the time endpoint doubles as a latency check.
	ts := client.NewTimeSync()
	if err := ts.ForceUpdate(ctx); err == nil {
		if m, ok := ts.Current(); ok {
			fmt.Printf("Ping:             %s\n", m.Ping().Round(100*time.Microsecond))
			fmt.Printf("Clock offset:     %s\n", m.Offset().Round(time.Millisecond))
		}
	}

	return nil
}
