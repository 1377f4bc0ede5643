package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTLSRequiresSecureOrigin = errors.New("session: tls settings require an https or wss origin")
	ErrTLSConflictingTrust     = errors.New("session: ca file and insecure skip verify are exclusive")
)

// Enabled reports whether any TLS override is set.
func (t TLSConfig) Enabled() bool {
	return strings.TrimSpace(t.CAFile) != "" ||
		strings.TrimSpace(t.ServerName) != "" ||
		t.InsecureSkipVerify
}

// ValidateTransport checks that TLS overrides are only set for secure
// endpoints and do not contradict each other.
func (c Config) ValidateTransport() error {
	if !c.TLS.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.TLS.CAFile) != "" && c.TLS.InsecureSkipVerify {
		return ErrTLSConflictingTrust
	}
	endpoint, err := Endpoint(c.Origin, "")
	if err != nil {
		return err
	}
	if !strings.HasPrefix(endpoint, "wss://") {
		return fmt.Errorf("%w: %s", ErrTLSRequiresSecureOrigin, endpoint)
	}
	return nil
}
