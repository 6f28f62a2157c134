// Package jellyfin provides a client for the Jellyfin media server API.
//
// This package implements authenticated access to the Jellyfin REST API,
// a WebSocket channel for server-pushed events, and convenience wrappers
// for search, playback and remote control. It is designed to be used as
// a standalone SDK.
//
// Example usage:
//
//	import "github.com/jfmyers9/jellyctl/pkg/jellyfin"
//
//	client, err := jellyfin.NewClient(jellyfin.Config{
//	    AppName:    "your-app",
//	    AppVersion: "0.0.1",
//	    DeviceName: "living-room",
//	    DeviceID:   "unique-device-id",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := client.Login(ctx, "http://jellyfin.local:8096", "user", "pass"); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.Items().Search(ctx, jellyfin.SearchOptions{Term: "matrix"})
package jellyfin

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the per-request timeout used when Config.Timeout is
// not set.
const DefaultTimeout = 30 * time.Second

// Config holds client configuration. AppName and AppVersion are
// required. DeviceName and DeviceID identify this installation to the
// server; leaving both empty selects API-key authentication, where the
// access token is a server-level key not tied to a device.
type Config struct {
	AppName    string // Required: application name sent with every request
	AppVersion string // Required: application version
	DeviceName string // Device name shown in the server dashboard
	DeviceID   string // Stable unique id for this device

	HTTPClient         *http.Client      // Optional: HTTP client (defaults to a client with Timeout)
	Timeout            time.Duration     // Optional: per-request timeout (defaults to DefaultTimeout)
	InsecureSkipVerify bool              // Optional: disable TLS certificate verification
	UserAgent          string            // Optional: overrides the default "name/version" user agent
	Logger             Logger            // Optional: logger interface for debug logging
	Options            map[string]string // Optional: forward-compatible string options
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// SessionState describes the authentication state of the client.
type SessionState int

const (
	// StateUnauthenticated means no access token is in use.
	StateUnauthenticated SessionState = iota
	// StateConnecting means a handshake or login is in flight.
	StateConnecting
	// StateAuthenticated means requests carry a token the server has
	// accepted.
	StateAuthenticated
	// StateExpired means the server rejected the current token. Calls
	// fail until the caller re-authenticates; the client never retries
	// with the same token.
	StateExpired
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Client is the main entry point for Jellyfin API operations. A client
// manages one logical session; the credential store may hold several
// servers, but only one is active at a time.
type Client struct {
	config     Config
	httpClient *http.Client
	creds      *CredentialStore
	logger     Logger

	mu    sync.RWMutex
	state SessionState

	system   *SystemService
	users    *UserService
	items    *ItemService
	sessions *SessionService
	playback *PlaybackService
	syncplay *SyncPlayService
}

// NewClient creates a new Jellyfin API client.
//
// Returns ErrNoAppInfo if the application identity (AppName, AppVersion)
// is missing. When a DeviceName is given without a DeviceID, a random
// device id is generated; persist Config.DeviceID yourself if the id
// must survive restarts.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AppName == "" || cfg.AppVersion == "" {
		return nil, ErrNoAppInfo
	}

	if cfg.DeviceName != "" && cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(cfg.InsecureSkipVerify),
		}
	}

	c := &Client{
		config:     cfg,
		httpClient: httpClient,
		creds:      NewCredentialStore(),
		logger:     cfg.Logger,
	}

	c.system = &SystemService{client: c}
	c.users = &UserService{client: c}
	c.items = &ItemService{client: c}
	c.sessions = &SessionService{client: c}
	c.playback = &PlaybackService{client: c}
	c.syncplay = &SyncPlayService{client: c}

	return c, nil
}

// System returns the system service.
func (c *Client) System() *SystemService { return c.system }

// Users returns the user service.
func (c *Client) Users() *UserService { return c.users }

// Items returns the item service.
func (c *Client) Items() *ItemService { return c.items }

// Sessions returns the session service.
func (c *Client) Sessions() *SessionService { return c.sessions }

// Playback returns the playback service.
func (c *Client) Playback() *PlaybackService { return c.playback }

// SyncPlay returns the SyncPlay service.
func (c *Client) SyncPlay() *SyncPlayService { return c.syncplay }

// Credentials returns the client's credential store. Export its contents
// to persist servers across restarts and feed them back through
// Authenticate.
func (c *Client) Credentials() *CredentialStore { return c.creds }

// State returns the current session state.
func (c *Client) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(s SessionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// expireSession records that the server rejected the access token.
// Subsequent calls fail fast with an AuthError until the caller
// re-authenticates.
func (c *Client) expireSession() {
	c.mu.Lock()
	if c.state == StateAuthenticated {
		c.state = StateExpired
	}
	c.mu.Unlock()
}

// UserID returns the user id of the active credential, or empty when no
// user session exists (API keys have no user identity).
func (c *Client) UserID() string {
	cred, ok := c.creds.Active()
	if !ok {
		return ""
	}
	return cred.UserID
}

// AccessToken returns the token of the active credential, or empty.
func (c *Client) AccessToken() string {
	cred, ok := c.creds.Active()
	if !ok {
		return ""
	}
	return cred.AccessToken
}

// DeviceID returns the configured device id.
func (c *Client) DeviceID() string { return c.config.DeviceID }

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
