package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsTestServer upgrades incoming connections and hands them to fn.
func wsTestServer(t *testing.T, fn func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		fn(conn, r)
	}))
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

// TestSocket_Connect tests the handshake and credential parameters.
func TestSocket_Connect(t *testing.T) {
	connected := make(chan *http.Request, 1)
	server := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		connected <- r
		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	socket := client.NewSocket()
	defer socket.Close()

	if err := socket.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := waitFor(t, connected, "connection")
	if r.URL.Path != "/socket" {
		t.Errorf("expected path /socket, got %s", r.URL.Path)
	}
	q := r.URL.Query()
	if got := q.Get("api_key"); got != "test-token" {
		t.Errorf("expected api_key test-token, got %q", got)
	}
	if got := q.Get("deviceId"); got != "device-1" {
		t.Errorf("expected deviceId device-1, got %q", got)
	}
}

// TestSocket_Connect_NoToken tests that an unauthenticated client
// cannot open the push channel.
func TestSocket_Connect_NoToken(t *testing.T) {
	client, err := NewClient(Config{AppName: "testapp", AppVersion: "1.0.0"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	socket := client.NewSocket()
	err = socket.Connect(context.Background())
	if !errors.Is(err, ErrNoActiveServer) {
		t.Errorf("expected ErrNoActiveServer, got %v", err)
	}

	client.creds.AddOrUpdate(ServerCredential{ID: "server-1", Address: "http://jellyfin.local:8096"})
	if err := client.creds.SetActive("server-1"); err != nil {
		t.Fatalf("failed to set active server: %v", err)
	}
	err = socket.Connect(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Errorf("expected *AuthError without token, got %v", err)
	}
}

// TestSocket_Dispatch tests handler routing by message type.
func TestSocket_Dispatch(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		messages := []string{
			`{"MessageType":"UserDataChanged","Data":{"UserId":"user-1"}}`,
			`{"MessageType":"ServerRestarting"}`,
		}
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	socket := client.NewSocket()
	defer socket.Close()

	typed := make(chan Message, 1)
	socket.OnMessage(MessageUserDataChanged, func(msg Message) {
		typed <- msg
	})
	all := make(chan Message, 2)
	socket.OnAny(func(msg Message) {
		all <- msg
	})

	if err := socket.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := waitFor(t, typed, "typed handler")
	if msg.MessageType != MessageUserDataChanged {
		t.Errorf("expected UserDataChanged, got %q", msg.MessageType)
	}
	var data struct {
		UserID string `json:"UserId"`
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.UserID != "user-1" {
		t.Errorf("expected UserId user-1, got %q", data.UserID)
	}

	// The catch-all sees both messages, in arrival order.
	first := waitFor(t, all, "catch-all first message")
	second := waitFor(t, all, "catch-all second message")
	if first.MessageType != MessageUserDataChanged || second.MessageType != MessageServerRestarting {
		t.Errorf("unexpected order: %q then %q", first.MessageType, second.MessageType)
	}
}

// TestSocket_DuplicateMessageID tests redelivery suppression.
func TestSocket_DuplicateMessageID(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		dup := `{"MessageType":"LibraryChanged","MessageId":"msg-1"}`
		for i := 0; i < 3; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(dup)); err != nil {
				return
			}
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"MessageType":"LibraryChanged","MessageId":"msg-2"}`)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	socket := client.NewSocket()
	defer socket.Close()

	got := make(chan Message, 4)
	socket.OnMessage(MessageLibraryChanged, func(msg Message) {
		got <- msg
	})

	if err := socket.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := waitFor(t, got, "first delivery")
	if first.MessageID != "msg-1" {
		t.Errorf("expected msg-1, got %q", first.MessageID)
	}
	// msg-2 arriving proves the msg-1 repeats were already processed
	// and dropped, since dispatch is in arrival order.
	second := waitFor(t, got, "second delivery")
	if second.MessageID != "msg-2" {
		t.Errorf("expected msg-2 after deduplication, got %q", second.MessageID)
	}
	select {
	case extra := <-got:
		t.Errorf("unexpected extra delivery: %+v", extra)
	default:
	}
}

// TestSocket_KeepAlive tests the ForceKeepAlive handshake.
func TestSocket_KeepAlive(t *testing.T) {
	reply := make(chan Message, 1)
	server := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"MessageType":"ForceKeepAlive","Data":60}`)); err != nil {
			return
		}
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		reply <- msg
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	socket := client.NewSocket()
	defer socket.Close()

	if err := socket.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := waitFor(t, reply, "keep-alive reply")
	if msg.MessageType != MessageKeepAlive {
		t.Errorf("expected KeepAlive reply, got %q", msg.MessageType)
	}
}

// TestSocket_MalformedFrame tests that bad frames surface as protocol
// errors without killing the connection.
func TestSocket_MalformedFrame(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		frames := []string{
			`{not json`,
			`{"Data":"no message type"}`,
			`{"MessageType":"LibraryChanged"}`,
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	socket := client.NewSocket()
	defer socket.Close()

	errs := make(chan error, 2)
	socket.OnError(func(err error) {
		errs <- err
	})
	got := make(chan Message, 1)
	socket.OnMessage(MessageLibraryChanged, func(msg Message) {
		got <- msg
	})

	if err := socket.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		err := waitFor(t, errs, "protocol error")
		var protoErr *ProtocolError
		if !errors.As(err, &protoErr) {
			t.Errorf("expected *ProtocolError, got %T: %v", err, err)
		}
	}

	// The connection survived both bad frames.
	msg := waitFor(t, got, "message after bad frames")
	if msg.MessageType != MessageLibraryChanged {
		t.Errorf("expected LibraryChanged, got %q", msg.MessageType)
	}
}

// TestSocket_Close tests idempotent shutdown and send-after-close.
func TestSocket_Close(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	socket := client.NewSocket()
	if err := socket.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := socket.Close(); err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}
	if err := socket.Close(); err != nil {
		t.Errorf("expected repeated close to be a no-op, got %v", err)
	}

	if err := socket.Send(MessageKeepAlive, nil); !errors.Is(err, ErrSocketClosed) {
		t.Errorf("expected ErrSocketClosed, got %v", err)
	}
}

// TestSocket_CloseBeforeConnect tests closing a never-connected socket.
func TestSocket_CloseBeforeConnect(t *testing.T) {
	client := newTestClient(t, "http://jellyfin.local:8096")
	socket := client.NewSocket()

	if err := socket.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := socket.Connect(context.Background()); !errors.Is(err, ErrSocketClosed) {
		// A closed socket must not dial out.
		t.Errorf("expected ErrSocketClosed, got %v", err)
	}
}
