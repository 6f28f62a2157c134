package jellyfin

import (
	"errors"
	"fmt"
)

// Predefined errors for common precondition failures.
var (
	// ErrNoAppInfo is returned when a client is created or used without
	// the application identity (name and version) being set.
	ErrNoAppInfo = errors.New("jellyfin: application identity not configured")

	// ErrNoActiveServer is returned when an operation requires an active
	// server credential but none has been selected.
	ErrNoActiveServer = errors.New("jellyfin: no active server")

	// ErrServerNotFound is returned by credential-store lookups when no
	// entry matches the requested server id.
	ErrServerNotFound = errors.New("jellyfin: server not found in credential store")

	// ErrSessionExpired is returned when the server has rejected the
	// access token and the caller has not yet re-authenticated.
	ErrSessionExpired = errors.New("jellyfin: session expired")

	// ErrSocketClosed is returned when sending on a closed event socket.
	ErrSocketClosed = errors.New("jellyfin: socket is closed")
)

// HTTPError represents a non-success response from the server.
//
// It carries the HTTP status code and the raw response body so callers
// can inspect server-provided detail.
type HTTPError struct {
	StatusCode int    // HTTP status code
	Body       string // Raw response body, may be empty
}

// Error returns the error message.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jellyfin: server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("jellyfin: server returned status %d: %s", e.StatusCode, e.Body)
}

// Is reports whether target is an *HTTPError with the same status code.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// ConnectionError represents a transport-level failure: DNS resolution,
// connection refused, TLS handshake, or timeout. The server was never
// reached or never produced a response.
type ConnectionError struct {
	Address string // Server address the request targeted
	Err     error  // Underlying transport error
}

// Error returns the error message.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("jellyfin: cannot reach %s: %v", e.Address, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError represents an authentication failure: bad credentials on
// login, or a rejected access token on a subsequent request.
type AuthError struct {
	Reason     string // Server-reported reason, if any
	StatusCode int    // HTTP status that triggered the failure, 0 if local
}

// Error returns the error message.
func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "jellyfin: authentication failed"
	}
	return "jellyfin: authentication failed: " + e.Reason
}

// ProtocolError represents a malformed or unexpected message received on
// the event socket. Unrecognized message types are not protocol errors;
// they are dispatched to the catch-all handler or dropped.
type ProtocolError struct {
	Reason string
	Err    error
}

// Error returns the error message.
func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return "jellyfin: protocol error: " + e.Reason
	}
	return fmt.Sprintf("jellyfin: protocol error: %s: %v", e.Reason, e.Err)
}

// Unwrap returns the underlying error, if any.
func (e *ProtocolError) Unwrap() error { return e.Err }
