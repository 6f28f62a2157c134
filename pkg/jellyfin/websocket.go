package jellyfin

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Well-known push message types. The set is open and server-defined;
// unrecognized types are delivered to the catch-all handler.
const (
	MessageForceKeepAlive      = "ForceKeepAlive"
	MessageKeepAlive           = "KeepAlive"
	MessageGeneralCommand      = "GeneralCommand"
	MessagePlay                = "Play"
	MessagePlaystate           = "Playstate"
	MessageSessions            = "Sessions"
	MessageUserDataChanged     = "UserDataChanged"
	MessageLibraryChanged      = "LibraryChanged"
	MessageRefreshProgress     = "RefreshProgress"
	MessageServerRestarting    = "ServerRestarting"
	MessageServerShuttingDown  = "ServerShuttingDown"
	MessageSyncPlayCommand     = "SyncPlayCommand"
	MessageSyncPlayGroupUpdate = "SyncPlayGroupUpdate"
)

// Message is one server-pushed notification. Data is left undecoded so
// handlers can unmarshal into whatever shape the message type defines.
type Message struct {
	MessageType string          `json:"MessageType"`
	MessageID   string          `json:"MessageId,omitempty"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

// MessageHandler is invoked for each decoded push message. Handlers run
// on the receive loop in arrival order and must not block; hand
// long-running work off to another goroutine.
type MessageHandler func(msg Message)

// Socket is a persistent WebSocket connection receiving server-pushed
// events. Register handlers, then call Connect. The socket does not
// reconnect on its own: a dropped transport may mean the token was
// revoked, and masking that as a network blip would hide it from the
// caller.
type Socket struct {
	client  *Client
	dialer  *websocket.Dialer
	onError func(error)

	mu       sync.Mutex
	conn     *websocket.Conn
	closed   bool
	handlers map[string][]MessageHandler
	catchAll []MessageHandler
	seen     map[string]bool
	stopKeep chan struct{}
}

// NewSocket creates an event socket bound to the client's active
// credential. Reconnection is the caller's decision: create a new
// socket after Close or a transport drop.
func (c *Client) NewSocket() *Socket {
	dialer := &websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: 10 * time.Second,
	}
	if c.config.InsecureSkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Socket{
		client:   c,
		dialer:   dialer,
		handlers: make(map[string][]MessageHandler),
		seen:     make(map[string]bool),
	}
}

// OnMessage registers a handler for one message type. Multiple handlers
// per type are invoked in registration order. Register before Connect.
func (s *Socket) OnMessage(messageType string, handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[messageType] = append(s.handlers[messageType], handler)
}

// OnAny registers a catch-all handler receiving every message,
// including types with no dedicated handler.
func (s *Socket) OnAny(handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchAll = append(s.catchAll, handler)
}

// OnError registers a callback for receive-side failures: malformed
// frames surface as *ProtocolError, transport drops as
// *ConnectionError. The socket keeps reading after a protocol error and
// stops after a transport error.
func (s *Socket) OnError(handler func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = handler
}

// Connect opens the push connection using the active access token and
// starts the receive loop.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSocketClosed
	}
	s.mu.Unlock()

	cred, ok := s.client.creds.Active()
	if !ok {
		return ErrNoActiveServer
	}
	if cred.AccessToken == "" {
		return &AuthError{Reason: "no access token for push connection"}
	}

	wsURL, err := socketURL(cred.Address, cred.AccessToken, s.client.DeviceID())
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return &ConnectionError{Address: cred.Address, Err: err}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return ErrSocketClosed
	}
	s.conn = conn
	s.mu.Unlock()

	s.client.logDebugf("jellyfin: socket connected to %s", cred.Address)
	go s.readLoop(conn)
	return nil
}

// socketURL derives the push endpoint from the server address.
func socketURL(address, token, deviceID string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", &ProtocolError{Reason: "invalid server address", Err: err}
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket"

	q := u.Query()
	q.Set("api_key", token)
	q.Set("deviceId", deviceID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send sends a client message on the socket.
func (s *Socket) Send(messageType string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || s.closed {
		return ErrSocketClosed
	}

	payload := struct {
		MessageType string `json:"MessageType"`
		Data        any    `json:"Data,omitempty"`
	}{MessageType: messageType, Data: data}

	return s.conn.WriteJSON(payload)
}

// readLoop reads frames until the connection drops or Close is called.
// Messages are dispatched in arrival order on this goroutine.
func (s *Socket) readLoop(conn *websocket.Conn) {
	defer s.stopKeepAlive()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.reportError(&ConnectionError{Address: conn.RemoteAddr().String(), Err: err})
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reportError(&ProtocolError{Reason: "malformed push message", Err: err})
			continue
		}
		if msg.MessageType == "" {
			s.reportError(&ProtocolError{Reason: "push message without MessageType"})
			continue
		}

		s.dispatch(msg)
	}
}

func (s *Socket) dispatch(msg Message) {
	// The server may deliver a message more than once; drop repeats.
	if msg.MessageID != "" {
		s.mu.Lock()
		if s.seen[msg.MessageID] {
			s.mu.Unlock()
			return
		}
		s.seen[msg.MessageID] = true
		s.mu.Unlock()
	}

	switch msg.MessageType {
	case MessageForceKeepAlive:
		var interval float64
		_ = json.Unmarshal(msg.Data, &interval)
		_ = s.Send(MessageKeepAlive, nil)
		s.startKeepAlive(time.Duration(interval) * time.Second)
		return
	case MessageKeepAlive:
		return
	}

	s.mu.Lock()
	typed := append([]MessageHandler(nil), s.handlers[msg.MessageType]...)
	catchAll := append([]MessageHandler(nil), s.catchAll...)
	s.mu.Unlock()

	for _, handler := range typed {
		handler(msg)
	}
	for _, handler := range catchAll {
		handler(msg)
	}
}

// startKeepAlive pings the server at half the advertised timeout, as
// the protocol requires.
func (s *Socket) startKeepAlive(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	s.mu.Lock()
	if s.stopKeep != nil {
		close(s.stopKeep)
	}
	stop := make(chan struct{})
	s.stopKeep = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(timeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.Send(MessageKeepAlive, nil); err != nil {
					return
				}
			}
		}
	}()
}

func (s *Socket) stopKeepAlive() {
	s.mu.Lock()
	if s.stopKeep != nil {
		close(s.stopKeep)
		s.stopKeep = nil
	}
	s.mu.Unlock()
}

func (s *Socket) reportError(err error) {
	s.mu.Lock()
	handler := s.onError
	s.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}

// Close releases the connection. It is idempotent and safe to call from
// any goroutine, including message handlers.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	if s.stopKeep != nil {
		close(s.stopKeep)
		s.stopKeep = nil
	}
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
