package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

var (
	watchLogLevel string
	watchTypes    []string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow server events over the websocket",
	Long: `Connect to the server's websocket and print events as they arrive.

The command will:
- Open a websocket session with the stored credentials
- Answer the server's keep-alive requests automatically
- Log every event to stderr, or only the types given with --type
- Exit on SIGINT/SIGTERM or when the connection drops

Malformed frames are logged and skipped without closing the connection.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	watchCmd.Flags().StringSliceVar(&watchTypes, "type", nil, "Only show events of these types (e.g. UserDataChanged)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, _, err := loadSession(ctx)
	if err != nil {
		return err
	}

	logger := watchLogger(watchLogLevel)

	socket := client.NewSocket()
	logEvent := func(msg jellyfin.Message) {
		ev := logger.Info().Str("type", msg.MessageType)
		if msg.MessageID != "" {
			ev = ev.Str("id", msg.MessageID)
		}
		if len(msg.Data) > 0 {
			ev = ev.RawJSON("data", msg.Data)
		}
		ev.Msg("Event")
	}
	if len(watchTypes) == 0 {
		socket.OnAny(logEvent)
	} else {
		for _, t := range watchTypes {
			socket.OnMessage(t, logEvent)
		}
	}
	socket.OnError(func(err error) {
		logger.Warn().Err(err).Msg("Socket error")
	})

	if err := socket.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect websocket: %w", err)
	}
	defer socket.Close()

	logger.Info().Msg("Watching server events, press Ctrl-C to stop")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logger.Info().Msg("Stopping")
	return nil
}

// watchLogger creates the console logger for the watch command
func watchLogger(logLevel string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
