package jellyfin

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// newTransport returns an HTTP transport honoring the TLS verification
// option. The default transport settings are kept otherwise.
func newTransport(insecureSkipVerify bool) http.RoundTripper {
	if !insecureSkipVerify {
		return http.DefaultTransport
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return t
}

// authorizationHeader builds the MediaBrowser authorization line:
//
//	MediaBrowser Client="app", Device="name", DeviceId="id", Version="v", Token="t"
//
// Device fields are omitted for API-key credentials, which carry no
// device identity.
func (c *Client) authorizationHeader() string {
	var parts []string
	if c.config.DeviceName != "" || c.config.DeviceID != "" {
		parts = append(parts,
			fmt.Sprintf("Client=%q", c.config.AppName),
			fmt.Sprintf("Device=%q", c.config.DeviceName),
			fmt.Sprintf("DeviceId=%q", c.config.DeviceID),
			fmt.Sprintf("Version=%q", c.config.AppVersion),
		)
	}
	if token := c.AccessToken(); token != "" {
		parts = append(parts, fmt.Sprintf("Token=%q", token))
	}
	return "MediaBrowser " + strings.Join(parts, ", ")
}

// defaultHeaders returns the headers attached to every request.
func (c *Client) defaultHeaders() http.Header {
	app := c.config.AppName + "/" + c.config.AppVersion
	userAgent := c.config.UserAgent
	if userAgent == "" {
		userAgent = app
	}

	h := make(http.Header)
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set("X-Application", app)
	h.Set("User-Agent", userAgent)
	h.Set("Authorization", c.authorizationHeader())
	return h
}

// serverURL joins a handler path onto the active server address.
func (c *Client) serverURL(handler string) (string, error) {
	cred, ok := c.creds.Active()
	if !ok {
		return "", ErrNoActiveServer
	}
	return joinURL(cred.Address, handler), nil
}

func joinURL(base, handler string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(handler, "/")
}

// get issues a GET against a handler on the active server.
func (c *Client) get(ctx context.Context, handler string, params url.Values, out any) error {
	u, err := c.serverURL(handler)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodGet, u, params, nil, out)
}

// post issues a POST with an optional JSON body against the active server.
func (c *Client) post(ctx context.Context, handler string, params url.Values, body, out any) error {
	u, err := c.serverURL(handler)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, u, params, body, out)
}

// delete issues a DELETE against the active server.
func (c *Client) delete(ctx context.Context, handler string, params url.Values) error {
	u, err := c.serverURL(handler)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, u, params, nil, nil)
}

// do performs a single HTTP request and decodes the JSON response into
// out. It never retries: state-changing calls (playback commands,
// reports) would duplicate side effects on the server, so retry policy
// belongs to the caller.
//
// Error mapping: transport failures become *ConnectionError, non-success
// statuses become *HTTPError, and a 401 becomes *AuthError and expires
// the session.
func (c *Client) do(ctx context.Context, method, rawurl string, params url.Values, body, out any) error {
	if c.State() == StateExpired {
		return &AuthError{Reason: "session expired, re-authenticate"}
	}

	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawurl, "?") {
			sep = "&"
		}
		rawurl += sep + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jellyfin: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawurl, reader)
	if err != nil {
		return fmt.Errorf("jellyfin: failed to create request: %w", err)
	}
	req.Header = c.defaultHeaders()

	c.logDebugf("jellyfin: %s %s", method, req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Address: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectionError{Address: req.URL.Host, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.expireSession()
		return &AuthError{
			Reason:     strings.TrimSpace(string(data)),
			StatusCode: resp.StatusCode,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("jellyfin: failed to decode response: %w", err)
	}
	return nil
}

// stream performs a GET and copies the raw response body to w. Used for
// audio streaming and downloads.
func (c *Client) stream(ctx context.Context, handler string, params url.Values, w io.Writer) error {
	u, err := c.serverURL(handler)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("jellyfin: failed to create request: %w", err)
	}
	req.Header = c.defaultHeaders()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Address: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.expireSession()
		return &AuthError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &ConnectionError{Address: req.URL.Host, Err: err}
	}
	return nil
}

// requestURL builds a fully qualified URL for a handler on the active
// server with the access token appended as an api_key query parameter.
// No request is issued; the URL can be handed to an external player.
func (c *Client) requestURL(handler string, params url.Values) (string, error) {
	u, err := c.serverURL(handler)
	if err != nil {
		return "", err
	}
	if params == nil {
		params = url.Values{}
	}
	if !params.Has("api_key") {
		if token := c.AccessToken(); token != "" {
			params.Set("api_key", token)
		}
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u, nil
}
