package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

var playQueueMode string

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <session-id> <item-id> [item-id...]",
	Short: "Play items on a session",
	Long: `Instruct a session to play one or more library items.

By default playback starts immediately. Use --queue next or
--queue last to add to the session's play queue instead.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playQueueMode, "queue", "q", "now", "Queue placement: now, next or last")
}

func runPlay(cmd *cobra.Command, args []string) error {
	var command jellyfin.PlayCommand
	switch playQueueMode {
	case "now":
		command = jellyfin.PlayNow
	case "next":
		command = jellyfin.PlayNext
	case "last":
		command = jellyfin.PlayLast
	default:
		return fmt.Errorf("unknown queue mode %q: use now, next or last", playQueueMode)
	}

	ctx := context.Background()
	client, cfg, err := loadSession(ctx)
	if err != nil {
		return err
	}

	sessionID, itemIDs := args[0], args[1:]
	if err := client.Sessions().PlayMedia(ctx, sessionID, itemIDs, command); err != nil {
		return fmt.Errorf("play command failed: %w", err)
	}
	return saveSession(client, cfg)
}
