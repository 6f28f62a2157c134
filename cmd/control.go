package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause <session-id>",
	Short: "Pause playback on a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, c sessionController) error {
			return c.Pause(ctx, args[0])
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Resume playback on a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, c sessionController) error {
			return c.Unpause(ctx, args[0])
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <session-id>",
	Short: "Stop playback on a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, c sessionController) error {
			return c.Stop(ctx, args[0])
		})
	},
}

var seekCmd = &cobra.Command{
	Use:   "seek <session-id> <position>",
	Short: "Seek playback on a session",
	Long: `Seek playback on a session to a position given as a Go duration,
e.g. '1m30s' or '42m'.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[1], err)
		}
		// The server counts position in ticks of 100ns.
		ticks := position.Nanoseconds() / 100
		return withSession(func(ctx context.Context, c sessionController) error {
			return c.Seek(ctx, args[0], ticks)
		})
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume <session-id> <0-100>",
	Short: "Set the volume of a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		volume, err := strconv.Atoi(args[1])
		if err != nil || volume < 0 || volume > 100 {
			return fmt.Errorf("volume must be a number between 0 and 100")
		}
		return withSession(func(ctx context.Context, c sessionController) error {
			return c.SetVolume(ctx, args[0], volume)
		})
	},
}

var messageCmd = &cobra.Command{
	Use:   "message <session-id> <text>",
	Short: "Show a message on a session's screen",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := args[1]
		for _, extra := range args[2:] {
			text += " " + extra
		}
		return withSession(func(ctx context.Context, c sessionController) error {
			return c.DisplayMessage(ctx, args[0], "jellyctl", text)
		})
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(messageCmd)
}

// sessionController is the slice of the session service the control
// commands need.
type sessionController interface {
	Pause(ctx context.Context, sessionID string) error
	Unpause(ctx context.Context, sessionID string) error
	Stop(ctx context.Context, sessionID string) error
	Seek(ctx context.Context, sessionID string, positionTicks int64) error
	SetVolume(ctx context.Context, sessionID string, volume int) error
	DisplayMessage(ctx context.Context, sessionID, header, text string) error
}

// withSession loads the stored session, runs fn against the session
// service, and persists the refreshed credentials.
func withSession(fn func(ctx context.Context, c sessionController) error) error {
	ctx := context.Background()

	client, cfg, err := loadSession(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, client.Sessions()); err != nil {
		return err
	}
	return saveSession(client, cfg)
}
