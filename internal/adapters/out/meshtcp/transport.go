// Package meshtcp implements the radio transport over a TCP connection to the
// mesh bridge. Frames are newline-delimited JSON. The client owns exactly one
// connection, guarded by a mutex, and reconnects on its own after a drop.
package meshtcp

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const (
	// maxFrameSize bounds one inbound frame. The mesh link is low-bandwidth;
	// anything larger is a framing error.
	maxFrameSize = 64 * 1024

	defaultDialTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// ErrNotConnected is returned by Send while the link is down. The payload is
// not buffered; retrying is the caller's concern.
var ErrNotConnected = errors.New("mesh transport is not connected")

// Client is a ports.Transport over one TCP connection to the mesh bridge.
type Client struct {
	addr           string
	reconnectDelay time.Duration
	logger         *slog.Logger

	mu        sync.Mutex
	conn      net.Conn
	state     ports.ConnectionState
	handler   func(payload []byte)
	observers []ports.ConnectionObserver

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a disconnected client for the bridge at addr.
func NewClient(addr string, reconnectDelay time.Duration, logger *slog.Logger) (*Client, error) {
	if addr == "" {
		return nil, errs.NewValueIsRequiredError("addr")
	}
	if reconnectDelay <= 0 {
		return nil, errs.NewValueIsInvalidError("reconnectDelay")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	return &Client{
		addr:           addr,
		reconnectDelay: reconnectDelay,
		logger:         logger.With("component", "meshtcp"),
		state:          ports.Disconnected,
	}, nil
}

// SetHandler registers the inbound frame callback. Must be called before Connect.
func (c *Client) SetHandler(handler func(payload []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Subscribe registers an observer for link state changes.
func (c *Client) Subscribe(observer ports.ConnectionObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, observer)
}

// State returns the current link state.
func (c *Client) State() ports.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the bridge and starts the read loop. The initial dial failure
// is returned to the caller; drops after that are handled by the client's own
// reconnect loop.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.conn = conn
	c.mu.Unlock()
	c.setState(ports.Connected)

	c.wg.Add(1)
	go c.run(runCtx, conn)
	return nil
}

// Close tears down the link and stops the read and reconnect loops.
func (c *Client) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	c.wg.Wait()
	c.setState(ports.Disconnected)
	return nil
}

// Send transmits one frame, appending the newline delimiter. Returns
// ErrNotConnected while the link is down. A write failure drops the
// connection; the reconnect loop brings it back.
func (c *Client) Send(_ context.Context, _ string, payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == ports.Connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		c.logger.Error("frame write failed", "error", err)
		c.dropConnection(conn)
		return err
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: defaultDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}
	c.logger.Info("connected to mesh bridge", "addr", c.addr)
	return conn, nil
}

// run reads frames until the connection drops, then keeps redialing until the
// client is closed.
func (c *Client) run(ctx context.Context, conn net.Conn) {
	defer c.wg.Done()

	for {
		c.readFrames(conn)
		c.dropConnection(conn)

		var err error
		conn, err = c.redial(ctx)
		if err != nil {
			return
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.setState(ports.Connected)
	}
}

func (c *Client) readFrames(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		payload := make([]byte, len(line))
		copy(payload, line)

		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()
		if handler != nil {
			handler(payload)
		}
	}

	if err := scanner.Err(); err != nil {
		c.logger.Warn("mesh link read failed", "error", err)
	}
}

// redial retries with a fixed delay until it succeeds or the client closes.
func (c *Client) redial(ctx context.Context) (net.Conn, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.reconnectDelay):
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Warn("mesh bridge redial failed", "addr", c.addr, "error", err)
			continue
		}
		return conn, nil
	}
}

func (c *Client) dropConnection(conn net.Conn) {
	_ = conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	c.setState(ports.Disconnected)
}

// setState updates the link state and notifies observers outside the lock.
// Repeated transitions to the same state are not re-announced.
func (c *Client) setState(state ports.ConnectionState) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	observers := append([]ports.ConnectionObserver(nil), c.observers...)
	c.mu.Unlock()

	for _, observer := range observers {
		observer(state)
	}
}
