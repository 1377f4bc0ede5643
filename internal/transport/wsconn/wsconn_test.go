package wsconn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/danmuck/powermon/internal/protocol/session"
	"github.com/danmuck/powermon/internal/testutil/testlog"
	"github.com/danmuck/powermon/internal/testutil/tlstest"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(echoHandler())
}

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.CloseNow()
		for {
			typ, data, err := ws.Read(r.Context())
			if err != nil {
				return
			}
			if typ == websocket.MessageText && string(data) == "ping" {
				data = []byte("pong")
			}
			if err := ws.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	})
}

func TestDialerRoundTripsTextAndBinary(t *testing.T) {
	testlog.Start(t)
	srv := echoServer(t)
	defer srv.Close()

	endpoint, err := session.Endpoint(srv.URL, "secret")
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dialer{}.Dial(ctx, endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close("test done")

	if err := conn.Write(ctx, session.TextMessage("ping")); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	msg, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if msg.Kind != session.MessageText || string(msg.Data) != "pong" {
		t.Fatalf("unexpected reply: %+v", msg)
	}

	if err := conn.Write(ctx, session.BinaryMessage([]byte{1, 2, 3})); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	msg, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("read binary: %v", err)
	}
	if msg.Kind != session.MessageBinary || len(msg.Data) != 3 {
		t.Fatalf("unexpected binary reply: %+v", msg)
	}

	if err := conn.Write(ctx, session.Message{Kind: 0}); err == nil {
		t.Fatalf("expected unsupported kind error")
	}
}

func TestDialerRejectsMissingToken(t *testing.T) {
	testlog.Start(t)
	srv := echoServer(t)
	defer srv.Close()

	endpoint, _ := session.Endpoint(srv.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := (Dialer{}).Dial(ctx, endpoint); err == nil || !strings.Contains(err.Error(), "wsconn: dial") {
		t.Fatalf("expected dial failure, got %v", err)
	}
}

func TestCloseUnblocksRead(t *testing.T) {
	testlog.Start(t)
	srv := echoServer(t)
	defer srv.Close()

	endpoint, _ := session.Endpoint(srv.URL, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dialer{}.Dial(ctx, endpoint)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	readErr := make(chan error, 1)
	go func() {
		_, err := conn.Read(ctx)
		readErr <- err
	}()
	_ = conn.Close(strings.Repeat("x", 200))
	select {
	case err := <-readErr:
		if err == nil {
			t.Fatalf("expected read error after close")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("read did not unblock after close")
	}
}

func TestNewDialerPinsDeviceCA(t *testing.T) {
	testlog.Start(t)
	auth := tlstest.NewAuthority(t, t.TempDir(), "powermon-test-ca")
	srv := httptest.NewUnstartedServer(echoHandler())
	srv.TLS = auth.ServerTLS(t)
	srv.StartTLS()
	defer srv.Close()

	endpoint, err := session.Endpoint(srv.URL, "secret")
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	if !strings.HasPrefix(endpoint, "wss://") {
		t.Fatalf("expected wss endpoint, got %s", endpoint)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := (Dialer{}).Dial(ctx, endpoint); err == nil {
		t.Fatalf("expected untrusted certificate to fail")
	}

	dialer, err := NewDialer(session.TLSConfig{CAFile: auth.CAFile()})
	if err != nil {
		t.Fatalf("new dialer: %v", err)
	}
	conn, err := dialer.Dial(ctx, endpoint)
	if err != nil {
		t.Fatalf("dial pinned: %v", err)
	}
	defer conn.Close("test done")
	if err := conn.Write(ctx, session.TextMessage("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg, err := conn.Read(ctx)
	if err != nil || string(msg.Data) != "pong" {
		t.Fatalf("unexpected reply %q err=%v", msg.Data, err)
	}
}

func TestClientTLSRejectsEmptyCAFile(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "empty.crt")
	if err := os.WriteFile(path, []byte("not a cert"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ClientTLS(session.TLSConfig{CAFile: path}); err == nil {
		t.Fatalf("expected error for file without certificates")
	}
	d, err := NewDialer(session.TLSConfig{})
	if err != nil || d.HTTPClient != nil {
		t.Fatalf("zero tls config must yield the zero dialer: %+v err=%v", d, err)
	}
}
