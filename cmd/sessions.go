package cmd

import (
	"context"
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List active playback sessions",
	Long: `List the sessions on the server that the signed-in user may control.

The SESSION column is the id accepted by the control and play commands.`,
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, cfg, err := loadSession(ctx)
	if err != nil {
		return err
	}

	sessions, err := client.Sessions().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if err := saveSession(client, cfg); err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No active sessions.")
		return nil
	}

	const (
		deviceWidth = 24
		clientWidth = 20
		userWidth   = 14
		stateWidth  = 28
	)

	fmt.Printf("%s  %s  %s  %s  %s\n",
		pad("DEVICE", deviceWidth), pad("CLIENT", clientWidth),
		pad("USER", userWidth), pad("NOW PLAYING", stateWidth), "SESSION")

	for _, s := range sessions {
		fmt.Printf("%s  %s  %s  %s  %s\n",
			pad(s.DeviceName, deviceWidth),
			pad(s.Client, clientWidth),
			pad(s.UserName, userWidth),
			pad(nowPlayingSummary(s), stateWidth),
			s.ID)
	}
	return nil
}

func nowPlayingSummary(s jellyfin.SessionInfo) string {
	if s.NowPlayingItem == nil {
		return "-"
	}
	name := s.NowPlayingItem.Name
	if s.PlayState != nil && s.PlayState.IsPaused {
		return runewidth.Truncate(name, 20, "…") + " (paused)"
	}
	return name
}
