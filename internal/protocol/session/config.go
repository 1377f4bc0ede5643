package session

import "time"

// TLSConfig applies to wss endpoints only. Devices usually serve a
// self-signed certificate, so CAFile pins the issuing authority.
type TLSConfig struct {
	CAFile             string
	ServerName         string
	InsecureSkipVerify bool
}

// Config defines connection and liveness timing for one device.
type Config struct {
	Origin            string
	Token             string
	DialTimeout       time.Duration
	WriteTimeout      time.Duration
	HeartbeatInterval time.Duration
	LivenessTimeout   time.Duration
	ReconnectDelay    time.Duration
	TLS               TLSConfig
}

// DefaultConfig probes every 10s, gives the device 5s to answer and
// reconnects after a constant 2s.
func DefaultConfig() Config {
	return Config{
		DialTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		LivenessTimeout:   5 * time.Second,
		ReconnectDelay:    2 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.LivenessTimeout <= 0 {
		c.LivenessTimeout = def.LivenessTimeout
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}
	return c
}
