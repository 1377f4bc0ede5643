package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errFakeClosed = errors.New("fake: connection closed")

type fakeConn struct {
	in        chan Message
	written   chan Message
	closed    chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	writes    []Message
	closes    atomic.Int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan Message, 16),
		written: make(chan Message, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) (Message, error) {
	select {
	case msg := <-c.in:
		return msg, nil
	case <-c.closed:
		return Message{}, errFakeClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (c *fakeConn) Write(_ context.Context, msg Message) error {
	select {
	case <-c.closed:
		return errFakeClosed
	default:
	}
	c.mu.Lock()
	c.writes = append(c.writes, msg)
	c.mu.Unlock()
	select {
	case c.written <- msg:
	default:
	}
	return nil
}

func (c *fakeConn) Close(string) error {
	c.closes.Add(1)
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) Writes() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.writes...)
}

type fakeDialer struct {
	mu        sync.Mutex
	endpoints []string
	conns     []*fakeConn
	fail      int
	dialed    chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{dialed: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) Dial(_ context.Context, endpoint string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoints = append(d.endpoints, endpoint)
	if d.fail > 0 {
		d.fail--
		return nil, errors.New("fake: connection refused")
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	d.dialed <- conn
	return conn, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.endpoints)
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		var zero T
		t.Fatalf("timed out waiting for %s", what)
		return zero
	}
}
