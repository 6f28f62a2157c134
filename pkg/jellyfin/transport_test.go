package jellyfin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// TestClient_Do_NoRetry tests that a failing request is attempted
// exactly once.
func TestClient_Do_NoRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("upstream down")); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.System().Info(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", httpErr.StatusCode)
	}
	if !strings.Contains(httpErr.Body, "upstream down") {
		t.Errorf("expected response body preserved, got %q", httpErr.Body)
	}

	if n := attempts.Load(); n != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", n)
	}
}

// TestClient_Do_SessionExpiry tests that a 401 expires the session and
// subsequent calls fail fast without touching the network.
func TestClient_Do_SessionExpiry(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		if _, err := w.Write([]byte("Token has been revoked")); err != nil {
			t.Fatalf("failed to write response body: %v", err)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.System().Info(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	if authErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", authErr.StatusCode)
	}
	if client.State() != StateExpired {
		t.Errorf("expected expired state, got %v", client.State())
	}

	// The second call must fail without another request.
	_, err = client.System().Info(context.Background())
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError on expired session, got %T: %v", err, err)
	}

	if n := requests.Load(); n != 1 {
		t.Errorf("expected 1 request total, got %d", n)
	}
}

// TestClient_Do_ErrorMapping tests the error taxonomy per status code.
func TestClient_Do_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		check      func(t *testing.T, err error)
	}{
		{
			name:       "404 not found",
			statusCode: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("expected *HTTPError, got %T", err)
				}
				if !errors.Is(err, &HTTPError{StatusCode: http.StatusNotFound}) {
					t.Error("expected error to match a 404 HTTPError")
				}
			},
		},
		{
			name:       "500 internal error",
			statusCode: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("expected *HTTPError, got %T", err)
				}
				if httpErr.StatusCode != http.StatusInternalServerError {
					t.Errorf("expected status 500, got %d", httpErr.StatusCode)
				}
			},
		},
		{
			name:       "401 unauthorized",
			statusCode: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				if !errors.As(err, &authErr) {
					t.Fatalf("expected *AuthError, got %T", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.System().Info(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			tt.check(t, err)
		})
	}
}

// TestClient_Do_ConnectionError tests transport failure mapping.
func TestClient_Do_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.System().Info(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %T: %v", err, err)
	}
	if connErr.Unwrap() == nil {
		t.Error("expected wrapped transport error")
	}
}

// TestClient_Do_NoActiveServer tests calls before any server is known.
func TestClient_Do_NoActiveServer(t *testing.T) {
	client, err := NewClient(Config{AppName: "testapp", AppVersion: "1.0.0"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.System().Info(context.Background())
	if !errors.Is(err, ErrNoActiveServer) {
		t.Errorf("expected ErrNoActiveServer, got %v", err)
	}
}

// TestClient_RequestURL tests URL construction for external players.
func TestClient_RequestURL(t *testing.T) {
	client := newTestClient(t, "http://jellyfin.local:8096")

	u, err := client.requestURL("Items/item-1/Download", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "http://jellyfin.local:8096/Items/item-1/Download?api_key=test-token"
	if u != want {
		t.Errorf("expected %q, got %q", want, u)
	}
}

// TestJoinURL tests path joining against various base shapes.
func TestJoinURL(t *testing.T) {
	tests := []struct {
		base    string
		handler string
		want    string
	}{
		{"http://a.example.com", "System/Info", "http://a.example.com/System/Info"},
		{"http://a.example.com/", "System/Info", "http://a.example.com/System/Info"},
		{"http://a.example.com", "/System/Info", "http://a.example.com/System/Info"},
		{"http://a.example.com/jellyfin", "System/Info", "http://a.example.com/jellyfin/System/Info"},
	}

	for _, tt := range tests {
		if got := joinURL(tt.base, tt.handler); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.handler, got, tt.want)
		}
	}
}
