package jellyfin

import (
	"context"
	"sync"
	"time"
)

const (
	// timeSyncSamples is how many measurements are retained. Older
	// samples age out so a drifting clock is eventually re-estimated.
	timeSyncSamples = 8

	// The first few measurements happen quickly so callers get a usable
	// offset right after Start, then polling settles down.
	timeSyncGreedyCount    = 3
	timeSyncGreedyInterval = time.Second
	timeSyncInterval       = 60 * time.Second
)

// Measurement is one round trip against the server clock, in the style
// of an NTP exchange. RequestSent and ResponseReceived are local clock
// readings; RequestReceived and ResponseSent are server clock readings.
type Measurement struct {
	RequestSent      time.Time
	RequestReceived  time.Time
	ResponseSent     time.Time
	ResponseReceived time.Time
}

// Offset estimates how far the server clock is ahead of the local
// clock. Add it to a local time to get server time.
func (m Measurement) Offset() time.Duration {
	return (m.RequestReceived.Sub(m.RequestSent) + m.ResponseSent.Sub(m.ResponseReceived)) / 2
}

// Delay is the round-trip time excluding server processing.
func (m Measurement) Delay() time.Duration {
	return m.ResponseReceived.Sub(m.RequestSent) - m.ResponseSent.Sub(m.RequestReceived)
}

// Ping is the estimated one-way latency to the server.
func (m Measurement) Ping() time.Duration {
	return m.Delay() / 2
}

// TimeSync estimates the offset between the local clock and the server
// clock by periodically sampling the server's time endpoint. SyncPlay
// commands carry server-frame timestamps, so every participant needs a
// shared notion of "now".
type TimeSync struct {
	client *Client

	mu       sync.Mutex
	samples  []Measurement
	current  *Measurement
	onUpdate []func(Measurement)
	stop     chan struct{}
}

// NewTimeSync creates a stopped time synchronizer. Call Start to begin
// sampling.
func (c *Client) NewTimeSync() *TimeSync {
	return &TimeSync{client: c}
}

// OnUpdate registers a callback invoked after every successful
// measurement with the current best estimate.
func (t *TimeSync) OnUpdate(fn func(Measurement)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUpdate = append(t.onUpdate, fn)
}

// Start begins periodic sampling. Calling Start on a running
// synchronizer is a no-op. Sampling stops when ctx is canceled or Stop
// is called.
func (t *TimeSync) Start(ctx context.Context) {
	t.mu.Lock()
	if t.stop != nil {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.loop(ctx, stop)
}

// Stop halts sampling. It is idempotent. Collected samples are kept, so
// conversions keep working with the last known offset.
func (t *TimeSync) Stop() {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.mu.Unlock()
}

func (t *TimeSync) loop(ctx context.Context, stop chan struct{}) {
	for count := 0; ; count++ {
		if err := t.measure(ctx); err != nil {
			t.client.logDebugf("jellyfin: time sync measurement failed: %v", err)
		}

		interval := timeSyncInterval
		if count < timeSyncGreedyCount {
			interval = timeSyncGreedyInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-time.After(interval):
		}
	}
}

// ForceUpdate takes one measurement immediately, outside the polling
// schedule.
func (t *TimeSync) ForceUpdate(ctx context.Context) error {
	return t.measure(ctx)
}

func (t *TimeSync) measure(ctx context.Context) error {
	requestSent := time.Now()
	resp, err := t.client.System().UTCTime(ctx)
	responseReceived := time.Now()
	if err != nil {
		return err
	}

	requestReceived, err := parseServerTime(resp.RequestReceptionTime)
	if err != nil {
		return err
	}
	responseSent, err := parseServerTime(resp.ResponseTransmissionTime)
	if err != nil {
		return err
	}

	m := Measurement{
		RequestSent:      requestSent,
		RequestReceived:  requestReceived,
		ResponseSent:     responseSent,
		ResponseReceived: responseReceived,
	}

	t.mu.Lock()
	t.samples = append(t.samples, m)
	if len(t.samples) > timeSyncSamples {
		t.samples = t.samples[len(t.samples)-timeSyncSamples:]
	}

	// The sample with the smallest network delay carries the least
	// uncertainty, so it wins regardless of age.
	best := t.samples[0]
	for _, sample := range t.samples[1:] {
		if sample.Delay() < best.Delay() {
			best = sample
		}
	}
	t.current = &best
	callbacks := append(([]func(Measurement))(nil), t.onUpdate...)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(best)
	}
	return nil
}

// parseServerTime decodes the timestamps the time endpoint returns.
// They carry seven fractional digits, which RFC 3339 parsing accepts.
func parseServerTime(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, &ProtocolError{Reason: "unparseable server timestamp", Err: err}
	}
	return ts, nil
}

// Current returns the best available measurement, or false when no
// sample has been taken yet.
func (t *TimeSync) Current() (Measurement, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Measurement{}, false
	}
	return *t.current, true
}

// Offset returns the current clock offset estimate, zero before the
// first measurement.
func (t *TimeSync) Offset() time.Duration {
	m, ok := t.Current()
	if !ok {
		return 0
	}
	return m.Offset()
}

// ServerTimeToLocal converts a server-frame timestamp to the local
// clock.
func (t *TimeSync) ServerTimeToLocal(serverTime time.Time) time.Time {
	return serverTime.Add(-t.Offset())
}

// LocalTimeToServer converts a local timestamp to the server's frame.
func (t *TimeSync) LocalTimeToServer(localTime time.Time) time.Time {
	return localTime.Add(t.Offset())
}
