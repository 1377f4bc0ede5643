// Package wsconn adapts github.com/coder/websocket connections to the
// message-oriented session.Conn contract.
package wsconn

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/coder/websocket"
	"github.com/danmuck/powermon/internal/protocol/session"
)

// DefaultReadLimit covers the largest UART burst the device forwards.
const DefaultReadLimit = 64 << 10

// maxCloseReason is the close frame payload limit minus the status code.
const maxCloseReason = 123

var ErrUnsupportedKind = errors.New("wsconn: unsupported message kind")

type Dialer struct {
	HTTPClient *http.Client
	Header     http.Header
	ReadLimit  int64
}

// NewDialer returns a Dialer honoring the session TLS overrides. Without
// overrides it is the zero Dialer.
func NewDialer(cfg session.TLSConfig) (Dialer, error) {
	if !cfg.Enabled() {
		return Dialer{}, nil
	}
	tlsCfg, err := ClientTLS(cfg)
	if err != nil {
		return Dialer{}, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg
	return Dialer{HTTPClient: &http.Client{Transport: transport}}, nil
}

// ClientTLS builds the client side TLS config for a wss endpoint.
func ClientTLS(cfg session.TLSConfig) (*tls.Config, error) {
	out := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         strings.TrimSpace(cfg.ServerName),
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	if path := strings.TrimSpace(cfg.CAFile); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("wsconn: read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("wsconn: no certificates in %s", path)
		}
		out.RootCAs = pool
	}
	return out, nil
}

func (d Dialer) Dial(ctx context.Context, endpoint string) (session.Conn, error) {
	ws, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPClient: d.HTTPClient,
		HTTPHeader: d.Header,
	})
	if err != nil {
		return nil, fmt.Errorf("wsconn: dial: %w", err)
	}
	limit := d.ReadLimit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	ws.SetReadLimit(limit)
	return Wrap(ws), nil
}

// Conn is a session.Conn over one websocket.
type Conn struct {
	ws *websocket.Conn
}

func Wrap(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) Read(ctx context.Context) (session.Message, error) {
	typ, data, err := c.ws.Read(ctx)
	if err != nil {
		return session.Message{}, err
	}
	switch typ {
	case websocket.MessageText:
		return session.Message{Kind: session.MessageText, Data: data}, nil
	default:
		return session.Message{Kind: session.MessageBinary, Data: data}, nil
	}
}

func (c *Conn) Write(ctx context.Context, msg session.Message) error {
	switch msg.Kind {
	case session.MessageText:
		return c.ws.Write(ctx, websocket.MessageText, msg.Data)
	case session.MessageBinary:
		return c.ws.Write(ctx, websocket.MessageBinary, msg.Data)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedKind, msg.Kind)
	}
}

// Close attempts a normal close handshake and falls back to dropping the
// socket when the peer is unresponsive or already gone.
func (c *Conn) Close(reason string) error {
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	if err := c.ws.Close(websocket.StatusNormalClosure, reason); err != nil {
		_ = c.ws.CloseNow()
		return err
	}
	return nil
}

// CloseStatus extracts the peer's close code, or -1.
func CloseStatus(err error) websocket.StatusCode {
	return websocket.CloseStatus(err)
}
