package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/jellyctl/internal/reporter"
	"github.com/jfmyers9/jellyctl/internal/tui"
)

var tuiRefresh time.Duration

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Display a terminal UI for server playback",
	Long: `Display a terminal-based user interface showing the server's active
playback sessions with real-time updates.

The TUI includes:
- Now playing display with item name, series or artist, user and device
- Progress bar showing playback position
- Session list with play state and a count of queued reports
- Recently finished items

Press 'q' to quit, space to pause or resume the selected session,
's' to stop it and tab to select another session.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().DurationVar(&tuiRefresh, "refresh", 2*time.Second, "Session poll interval")
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, cfg, err := loadSession(ctx)
	if err != nil {
		return err
	}

	queue, err := reporter.NewQueue(cfg.QueuePath)
	if err != nil {
		return fmt.Errorf("failed to open report queue: %w", err)
	}
	defer queue.Close()

	app := tui.New()
	app.SetController(client.Sessions())

	// Polling goroutine feeding the TUI
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan tui.SessionUpdate, 1)
	go func() {
		const (
			baseInterval = 1 * time.Second
			maxInterval  = 16 * time.Second
		)
		interval := tuiRefresh
		if interval <= 0 {
			interval = baseInterval
		}
		base := interval
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		poll := func() error {
			sessions, err := client.Sessions().List(pollCtx)
			select {
			case updates <- tui.SessionUpdate{Sessions: sessions, Err: err}:
			case <-pollCtx.Done():
			}
			if pending, countErr := queue.Count(pollCtx, false); countErr == nil {
				app.SetPendingCount(pending)
			}
			return err
		}

		// Initial fetch
		_ = poll()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				if err := poll(); err != nil {
					// Exponential backoff on error
					if interval < maxInterval {
						interval *= 2
						if interval > maxInterval {
							interval = maxInterval
						}
						ticker.Reset(interval)
					}
					continue
				}
				// Reset to base interval on success
				if interval != base {
					interval = base
					ticker.Reset(interval)
				}
			}
		}
	}()

	if err := app.Run(ctx, updates); err != nil {
		return err
	}
	return saveSession(client, cfg)
}
