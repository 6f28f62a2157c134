package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// TestMeasurement_Math tests the offset and delay arithmetic with known
// clock readings.
func TestMeasurement_Math(t *testing.T) {
	local := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	// Server clock runs 10 minutes ahead; 40ms on the wire each way,
	// 20ms server processing.
	m := Measurement{
		RequestSent:      local,
		RequestReceived:  local.Add(10*time.Minute + 40*time.Millisecond),
		ResponseSent:     local.Add(10*time.Minute + 60*time.Millisecond),
		ResponseReceived: local.Add(100 * time.Millisecond),
	}

	if got := m.Offset(); got != 10*time.Minute {
		t.Errorf("expected offset 10m, got %v", got)
	}
	if got := m.Delay(); got != 80*time.Millisecond {
		t.Errorf("expected delay 80ms, got %v", got)
	}
	if got := m.Ping(); got != 40*time.Millisecond {
		t.Errorf("expected ping 40ms, got %v", got)
	}
}

// TestTimeSync_ForceUpdate tests one measurement round trip against a
// server whose clock is offset.
func TestTimeSync_ForceUpdate(t *testing.T) {
	const skew = time.Hour

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/GetUTCTime" {
			t.Errorf("expected path /GetUTCTime, got %s", r.URL.Path)
		}
		// Timestamps in the server's seven-digit fractional format.
		now := time.Now().Add(skew).UTC()
		if err := json.NewEncoder(w).Encode(UTCTimeResponse{
			RequestReceptionTime:     now.Format("2006-01-02T15:04:05.9999999Z"),
			ResponseTransmissionTime: now.Format("2006-01-02T15:04:05.9999999Z"),
		}); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	sync := client.NewTimeSync()

	var updates atomic.Int32
	sync.OnUpdate(func(m Measurement) {
		updates.Add(1)
	})

	if _, ok := sync.Current(); ok {
		t.Error("expected no measurement before the first update")
	}
	if got := sync.Offset(); got != 0 {
		t.Errorf("expected zero offset before first measurement, got %v", got)
	}

	if err := sync.ForceUpdate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	current, ok := sync.Current()
	if !ok {
		t.Fatal("expected a measurement after ForceUpdate")
	}

	// The estimate must land near the configured skew; allow generous
	// slack for the local round trip.
	offset := current.Offset()
	if offset < skew-5*time.Second || offset > skew+5*time.Second {
		t.Errorf("expected offset near %v, got %v", skew, offset)
	}
	if n := updates.Load(); n != 1 {
		t.Errorf("expected 1 update callback, got %d", n)
	}

	// Conversions apply the offset in opposite directions.
	local := time.Now()
	if got := sync.LocalTimeToServer(local).Sub(local); got != offset {
		t.Errorf("expected local-to-server shift %v, got %v", offset, got)
	}
	if got := local.Sub(sync.ServerTimeToLocal(local)); got != offset {
		t.Errorf("expected server-to-local shift %v, got %v", offset, got)
	}
}

// TestTimeSync_SampleWindow tests that the retained sample set is
// bounded.
func TestTimeSync_SampleWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		if err := json.NewEncoder(w).Encode(UTCTimeResponse{
			RequestReceptionTime:     now.Format("2006-01-02T15:04:05.9999999Z"),
			ResponseTransmissionTime: now.Format("2006-01-02T15:04:05.9999999Z"),
		}); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	sync := client.NewTimeSync()

	for i := 0; i < timeSyncSamples+4; i++ {
		if err := sync.ForceUpdate(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	sync.mu.Lock()
	n := len(sync.samples)
	sync.mu.Unlock()
	if n != timeSyncSamples {
		t.Errorf("expected %d retained samples, got %d", timeSyncSamples, n)
	}
}

// TestTimeSync_BestSampleByDelay tests that the lowest-delay sample
// drives the current estimate.
func TestTimeSync_BestSampleByDelay(t *testing.T) {
	client := newTestClient(t, "http://jellyfin.local:8096")
	sync := client.NewTimeSync()

	local := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	slow := Measurement{
		RequestSent:      local,
		RequestReceived:  local.Add(time.Minute),
		ResponseSent:     local.Add(time.Minute),
		ResponseReceived: local.Add(2 * time.Second),
	}
	fast := Measurement{
		RequestSent:      local,
		RequestReceived:  local.Add(2 * time.Minute),
		ResponseSent:     local.Add(2 * time.Minute),
		ResponseReceived: local.Add(10 * time.Millisecond),
	}

	sync.mu.Lock()
	sync.samples = []Measurement{slow, fast}
	best := sync.samples[0]
	for _, sample := range sync.samples[1:] {
		if sample.Delay() < best.Delay() {
			best = sample
		}
	}
	sync.current = &best
	sync.mu.Unlock()

	current, ok := sync.Current()
	if !ok {
		t.Fatal("expected a current measurement")
	}
	if current.Delay() != fast.Delay() {
		t.Errorf("expected the low-delay sample to win, got delay %v", current.Delay())
	}
}

// TestTimeSync_StartStop tests lifecycle idempotence.
func TestTimeSync_StartStop(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		now := time.Now().UTC()
		if err := json.NewEncoder(w).Encode(UTCTimeResponse{
			RequestReceptionTime:     now.Format("2006-01-02T15:04:05.9999999Z"),
			ResponseTransmissionTime: now.Format("2006-01-02T15:04:05.9999999Z"),
		}); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	sync := client.NewTimeSync()

	updated := make(chan struct{}, 16)
	sync.OnUpdate(func(Measurement) {
		select {
		case updated <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sync.Start(ctx)
	sync.Start(ctx) // second Start is a no-op

	select {
	case <-updated:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first measurement")
	}

	sync.Stop()
	sync.Stop() // second Stop is a no-op

	// The last estimate survives Stop.
	if _, ok := sync.Current(); !ok {
		t.Error("expected measurement to remain after Stop")
	}
}

// TestParseServerTime tests timestamp decoding.
func TestParseServerTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "seven fractional digits", input: "2026-08-20T12:00:00.1234567Z"},
		{name: "no fraction", input: "2026-08-20T12:00:00Z"},
		{name: "with zone offset", input: "2026-08-20T12:00:00.123+02:00"},
		{name: "garbage", input: "not-a-time", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := parseServerTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var protoErr *ProtocolError
				if !errors.As(err, &protoErr) {
					t.Errorf("expected *ProtocolError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ts.IsZero() {
				t.Error("expected non-zero time")
			}
		})
	}
}
