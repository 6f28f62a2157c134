package jellyfin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NormalizeAddress corrects common server-address input: a missing
// scheme defaults to http, default ports are stripped, and trailing
// slashes removed.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("jellyfin: server address cannot be empty")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("jellyfin: invalid server address %q: %w", address, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("jellyfin: unsupported scheme %q", u.Scheme)
	}

	if (u.Scheme == "http" && u.Port() == "80") || (u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String(), nil
}

// ConnectToAddress probes a server address and returns its public
// capability info. The server is recorded in the credential store but no
// authentication takes place.
func (c *Client) ConnectToAddress(ctx context.Context, address string) (*PublicSystemInfo, error) {
	address, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var info PublicSystemInfo
	if err := c.do(ctx, http.MethodGet, joinURL(address, "System/Info/Public"), nil, nil, &info); err != nil {
		return nil, err
	}

	c.creds.AddOrUpdate(ServerCredential{
		ID:      info.ID,
		Name:    info.ServerName,
		Address: address,
	})

	c.logDebugf("jellyfin: connected to %s (%s %s)", address, info.ServerName, info.Version)
	return &info, nil
}

// Login exchanges a username and password for an access token. On
// success the server credential is stored and marked active, and the
// session becomes authenticated. On failure nothing is stored.
func (c *Client) Login(ctx context.Context, address, username, password string) (*AuthenticationResult, error) {
	if username == "" {
		return nil, fmt.Errorf("jellyfin: username cannot be empty")
	}
	address, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	c.setState(StateConnecting)

	body := map[string]string{
		"Username": username,
		"Pw":       password,
	}

	var result AuthenticationResult
	err = c.do(ctx, http.MethodPost, joinURL(address, "Users/AuthenticateByName"), nil, body, &result)
	if err != nil {
		c.setState(StateUnauthenticated)
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusBadRequest || httpErr.StatusCode == http.StatusForbidden) {
			return nil, &AuthError{Reason: strings.TrimSpace(httpErr.Body), StatusCode: httpErr.StatusCode}
		}
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, err
	}
	if result.AccessToken == "" {
		c.setState(StateUnauthenticated)
		return nil, &AuthError{Reason: "server returned no access token"}
	}

	cred := c.creds.AddOrUpdate(ServerCredential{
		ID:               result.ServerID,
		Address:          address,
		AccessToken:      result.AccessToken,
		UserID:           result.User.ID,
		Username:         result.User.Name,
		DateLastAccessed: time.Now().UTC().Truncate(time.Second),
	})
	if err := c.creds.SetActive(cred.ID); err != nil {
		c.setState(StateUnauthenticated)
		return nil, err
	}
	_ = c.creds.AddOrUpdateUser(cred.ID, LinkedUser{ID: result.User.ID, IsSignedInOffline: true})

	c.setState(StateAuthenticated)
	c.logDebugf("jellyfin: logged in to %s as %s", address, username)
	return &result, nil
}

// Authenticate re-establishes a session from previously exported
// credentials without a password. The most recently used server entry is
// selected.
//
// When discover is true the address is probed first and a stored
// per-device token is validated against the server; connectivity and
// token problems surface immediately. With discover false the stored
// address is trusted as known-good and errors surface on the first real
// API call instead.
//
// An API-key credential (access token without a user identity) skips
// token validation and device registration entirely; the key is simply
// attached to subsequent requests.
func (c *Client) Authenticate(ctx context.Context, data Credentials, discover bool) (ServerCredential, error) {
	if err := c.creds.Import(data); err != nil {
		return ServerCredential{}, err
	}
	servers := c.creds.Servers()
	if len(servers) == 0 {
		return ServerCredential{}, fmt.Errorf("jellyfin: no servers in credentials")
	}
	cred := servers[0]

	address, err := NormalizeAddress(cred.Address)
	if err != nil {
		return ServerCredential{}, err
	}
	cred.Address = address

	c.setState(StateConnecting)

	if discover {
		var info PublicSystemInfo
		if err := c.do(ctx, http.MethodGet, joinURL(address, "System/Info/Public"), nil, nil, &info); err != nil {
			c.setState(StateUnauthenticated)
			return ServerCredential{}, err
		}
		if info.ID != "" {
			cred.ID = info.ID
		}
		if info.ServerName != "" {
			cred.Name = info.ServerName
		}
	}

	// Entries bootstrapped from a bare API key carry no server id; use
	// the address as a stable local identifier.
	if cred.ID == "" {
		cred.ID = cred.Address
	}

	cred.DateLastAccessed = time.Now().UTC().Truncate(time.Second)
	stored := c.creds.AddOrUpdate(cred)
	if err := c.creds.SetActive(stored.ID); err != nil {
		c.setState(StateUnauthenticated)
		return ServerCredential{}, err
	}

	if stored.AccessToken == "" {
		c.setState(StateUnauthenticated)
		return stored, &AuthError{Reason: "stored credential has no access token"}
	}

	if discover && !stored.IsAPIKey() {
		if _, err := c.system.Info(ctx); err != nil {
			c.setState(StateUnauthenticated)
			c.creds.RevokeToken(stored.ID)
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return stored, authErr
			}
			return stored, err
		}
	}

	c.setState(StateAuthenticated)
	return stored, nil
}

// Logout revokes the active session on the server and clears the stored
// token. The server entry itself is kept so it can be logged into again.
func (c *Client) Logout(ctx context.Context) error {
	cred, ok := c.creds.Active()
	if !ok {
		return ErrNoActiveServer
	}

	err := c.post(ctx, "Sessions/Logout", nil, nil, nil)

	c.creds.RevokeToken(cred.ID)
	c.setState(StateUnauthenticated)

	// A rejected token means the session was already gone; that is not
	// a logout failure.
	var authErr *AuthError
	if err != nil && !errors.As(err, &authErr) {
		return err
	}
	return nil
}
