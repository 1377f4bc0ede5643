package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownChannel = errors.New("domain: unknown channel")

// Channel names one monitored electrical input.
type Channel string

const (
	ChannelUSB  Channel = "USB"
	ChannelMain Channel = "MAIN"
	ChannelVIN  Channel = "VIN"
)

// Channels returns the closed channel set in display order.
func Channels() []Channel {
	return []Channel{ChannelUSB, ChannelMain, ChannelVIN}
}

func (c Channel) String() string {
	return string(c)
}

// ParseChannel accepts canonical or lower-case channel names.
func ParseChannel(raw string) (Channel, error) {
	switch Channel(strings.ToUpper(strings.TrimSpace(raw))) {
	case ChannelUSB:
		return ChannelUSB, nil
	case ChannelMain:
		return ChannelMain, nil
	case ChannelVIN:
		return ChannelVIN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, raw)
	}
}
