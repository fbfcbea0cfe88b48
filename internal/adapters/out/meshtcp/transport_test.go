package meshtcp_test

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/meshtcp"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bridgeStub is a minimal in-process stand-in for the mesh bridge.
type bridgeStub struct {
	listener net.Listener

	mu    sync.Mutex
	conns []net.Conn
}

func newBridgeStub(t *testing.T) *bridgeStub {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	stub := &bridgeStub{listener: listener}
	t.Cleanup(func() {
		_ = listener.Close()
		stub.mu.Lock()
		defer stub.mu.Unlock()
		for _, conn := range stub.conns {
			_ = conn.Close()
		}
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			stub.mu.Lock()
			stub.conns = append(stub.conns, conn)
			stub.mu.Unlock()
		}
	}()
	return stub
}

func (b *bridgeStub) addr() string {
	return b.listener.Addr().String()
}

// waitForConn returns the n-th accepted connection.
func (b *bridgeStub) waitForConn(t *testing.T, n int) net.Conn {
	t.Helper()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.conns) >= n
	}, 2*time.Second, 10*time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conns[n-1]
}

func TestNewClient_ValidationErrors(t *testing.T) {
	_, err := meshtcp.NewClient("", time.Second, discardLogger())
	assert.Error(t, err)

	_, err = meshtcp.NewClient("127.0.0.1:4403", 0, discardLogger())
	assert.Error(t, err)

	_, err = meshtcp.NewClient("127.0.0.1:4403", time.Second, nil)
	assert.Error(t, err)
}

func TestClient_ConnectFailsWhenBridgeDown(t *testing.T) {
	client, err := meshtcp.NewClient("127.0.0.1:1", 10*time.Millisecond, discardLogger())
	require.NoError(t, err)

	assert.Error(t, client.Connect(t.Context()))
	assert.Equal(t, ports.Disconnected, client.State())
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	client, err := meshtcp.NewClient("127.0.0.1:1", 10*time.Millisecond, discardLogger())
	require.NoError(t, err)

	err = client.Send(t.Context(), "unit-7", []byte(`{"type":"assign"}`))
	assert.ErrorIs(t, err, meshtcp.ErrNotConnected)
}

func TestClient_SendWritesNewlineDelimitedFrame(t *testing.T) {
	stub := newBridgeStub(t)
	client, err := meshtcp.NewClient(stub.addr(), 10*time.Millisecond, discardLogger())
	require.NoError(t, err)

	require.NoError(t, client.Connect(t.Context()))
	defer func() {
		_ = client.Close()
	}()

	conn := stub.waitForConn(t, 1)
	require.NoError(t, client.Send(t.Context(), "unit-7", []byte(`{"type":"assign","msg_id":"m1"}`)))

	reader := bufio.NewReader(conn)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, `{"type":"assign","msg_id":"m1"}`+"\n", line)
}

func TestClient_DeliversInboundFrames(t *testing.T) {
	stub := newBridgeStub(t)
	client, err := meshtcp.NewClient(stub.addr(), 10*time.Millisecond, discardLogger())
	require.NoError(t, err)

	var mu sync.Mutex
	var frames [][]byte
	client.SetHandler(func(payload []byte) {
		mu.Lock()
		defer mu.Unlock()
		frames = append(frames, payload)
	})

	require.NoError(t, client.Connect(t.Context()))
	defer func() {
		_ = client.Close()
	}()

	conn := stub.waitForConn(t, 1)
	_, err = conn.Write([]byte(`{"type":"ack","ack_id":"m1"}` + "\n" + `{"type":"loc","unit_id":"unit-7"}` + "\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.JSONEq(t, `{"type":"ack","ack_id":"m1"}`, string(frames[0]))
	assert.JSONEq(t, `{"type":"loc","unit_id":"unit-7"}`, string(frames[1]))
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	stub := newBridgeStub(t)
	client, err := meshtcp.NewClient(stub.addr(), 10*time.Millisecond, discardLogger())
	require.NoError(t, err)

	var mu sync.Mutex
	var transitions []ports.ConnectionState
	client.Subscribe(func(state ports.ConnectionState) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, state)
	})

	require.NoError(t, client.Connect(t.Context()))
	defer func() {
		_ = client.Close()
	}()

	first := stub.waitForConn(t, 1)
	require.NoError(t, first.Close())

	stub.waitForConn(t, 2)
	require.Eventually(t, func() bool {
		return client.State() == ports.Connected
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ports.ConnectionState{
		ports.Connected, ports.Disconnected, ports.Connected,
	}, transitions)
}
