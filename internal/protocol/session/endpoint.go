package session

import (
	"fmt"
	"net/url"
	"strings"
)

// WebSocketPath is where the device serves its telemetry socket.
const WebSocketPath = "/ws"

// Endpoint derives the device socket URL from the page or device origin.
// http maps to ws and https to wss; a bare host is treated as http. A
// non-empty token is attached as the "token" query parameter.
func Endpoint(origin, token string) (string, error) {
	raw := strings.TrimSpace(origin)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidOrigin)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidOrigin, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidOrigin)
	}
	u.Path = WebSocketPath
	u.RawPath = ""
	u.Fragment = ""
	u.RawQuery = ""
	if token != "" {
		u.RawQuery = url.Values{"token": []string{token}}.Encode()
	}
	return u.String(), nil
}
