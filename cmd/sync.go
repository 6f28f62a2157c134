package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/jellyctl/internal/reporter"
)

var syncCleanupAge time.Duration

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Deliver queued playback reports",
	Long: `Deliver playback reports that were queued while the server was
unreachable.

Reports are sent oldest first. Delivery stops at the first connection
failure and the remaining reports stay queued for the next run.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().DurationVar(&syncCleanupAge, "cleanup", 30*24*time.Hour, "Remove delivered reports older than this age")
}

func runSync(cmd *cobra.Command, args []string) error {
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

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	rep := reporter.New(client, queue, log)

	delivered, err := rep.Flush(ctx)
	if err != nil {
		return fmt.Errorf("delivered %d report(s), then: %w", delivered, err)
	}
	if err := saveSession(client, cfg); err != nil {
		return err
	}

	removed, err := queue.Cleanup(ctx, syncCleanupAge)
	if err != nil {
		return err
	}

	fmt.Printf("Delivered %d report(s), removed %d old record(s)\n", delivered, removed)
	return nil
}
