package reporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

// Reporter delivers playback reports to the server, falling back to the
// local queue when the server is unreachable. The API client itself
// never retries, so all redelivery decisions live here.
type Reporter struct {
	client *jellyfin.Client
	queue  *Queue
	log    zerolog.Logger
}

// New creates a reporter around an authenticated client and a queue.
func New(client *jellyfin.Client, queue *Queue, log zerolog.Logger) *Reporter {
	return &Reporter{
		client: client,
		queue:  queue,
		log:    log,
	}
}

// Report sends one playback report. When the server cannot be reached
// the report is queued for a later Flush instead of being lost.
func (r *Reporter) Report(ctx context.Context, report Report) error {
	err := r.send(ctx, report)
	if err == nil {
		return nil
	}

	var connErr *jellyfin.ConnectionError
	if !errors.As(err, &connErr) {
		return err
	}

	r.log.Warn().
		Str("item_id", report.ItemID).
		Str("event", string(report.Event)).
		Msg("server unreachable, queueing playback report")

	if _, qerr := r.queue.Add(ctx, report); qerr != nil {
		return fmt.Errorf("failed to queue report after delivery failure: %w", qerr)
	}
	return nil
}

// Flush attempts to deliver all pending reports in timestamp order.
// Delivery stops at the first connection or authentication failure;
// anything the server rejected outright is recorded and skipped next
// time around. Returns the number of reports delivered.
func (r *Reporter) Flush(ctx context.Context) (int, error) {
	pending, err := r.queue.Pending(ctx, 0)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	r.log.Debug().Int("count", len(pending)).Msg("flushing queued playback reports")

	delivered := 0
	for _, report := range pending {
		err := r.send(ctx, report)
		if err == nil {
			if err := r.queue.MarkSent(ctx, report.ID); err != nil {
				return delivered, err
			}
			delivered++
			continue
		}

		var connErr *jellyfin.ConnectionError
		var authErr *jellyfin.AuthError
		if errors.As(err, &connErr) || errors.As(err, &authErr) {
			// Still unreachable or the session died; keep the rest
			// queued and try again on the next flush.
			return delivered, err
		}

		// The server saw the report and refused it. Remember why and
		// move on; redelivering the same payload will not help.
		r.log.Warn().
			Int64("report_id", report.ID).
			Err(err).
			Msg("server rejected queued report")
		if merr := r.queue.MarkRejected(ctx, report.ID, err.Error()); merr != nil {
			return delivered, merr
		}
	}

	return delivered, nil
}

func (r *Reporter) send(ctx context.Context, report Report) error {
	sessions := r.client.Sessions()

	switch report.Event {
	case EventStart:
		return sessions.ReportPlaying(ctx, jellyfin.PlaybackStartInfo{
			ItemID:        report.ItemID,
			PlaySessionID: report.PlaySessionID,
			PositionTicks: report.PositionTicks,
		})
	case EventProgress:
		return sessions.ReportProgress(ctx, jellyfin.PlaybackProgressInfo{
			ItemID:        report.ItemID,
			PlaySessionID: report.PlaySessionID,
			PositionTicks: report.PositionTicks,
		})
	case EventStop:
		return sessions.ReportStopped(ctx, jellyfin.PlaybackStopInfo{
			ItemID:        report.ItemID,
			PlaySessionID: report.PlaySessionID,
			PositionTicks: report.PositionTicks,
		})
	default:
		return fmt.Errorf("unknown report event %q", report.Event)
	}
}
