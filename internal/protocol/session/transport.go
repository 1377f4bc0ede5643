package session

import "context"

type MessageKind uint8

const (
	MessageText MessageKind = iota + 1
	MessageBinary
)

func (k MessageKind) String() string {
	switch k {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Message is one whole transport message.
type Message struct {
	Kind MessageKind
	Data []byte
}

func TextMessage(s string) Message {
	return Message{Kind: MessageText, Data: []byte(s)}
}

func BinaryMessage(b []byte) Message {
	return Message{Kind: MessageBinary, Data: b}
}

// Conn is a message-oriented duplex connection. Close must unblock a
// pending Read.
type Conn interface {
	Read(ctx context.Context) (Message, error)
	Write(ctx context.Context, msg Message) error
	Close(reason string) error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

type DialerFunc func(ctx context.Context, endpoint string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, endpoint string) (Conn, error) {
	return f(ctx, endpoint)
}
