package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snmp-health-agent/internal/model"
)

type wsCapture struct {
	mu       sync.Mutex
	messages [][]byte
	auth     []string
	conns    []*websocket.Conn
}

func (c *wsCapture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func startWebSocketBackend(t *testing.T) (*wsCapture, string) {
	t.Helper()
	capture := &wsCapture{}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		capture.mu.Lock()
		capture.auth = append(capture.auth, r.Header.Get("Authorization"))
		capture.conns = append(capture.conns, conn)
		capture.mu.Unlock()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			capture.mu.Lock()
			capture.messages = append(capture.messages, msg)
			capture.mu.Unlock()
		}
	}))
	t.Cleanup(srv.Close)
	return capture, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketClientSendsEnvelope(t *testing.T) {
	capture, url := startWebSocketBackend(t)
	c := NewWebSocketClient(url, "tok", nil, time.Second, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	observed := time.Unix(1767225600, 0).UTC()
	snap := model.MetricSnapshot{CPUUtilizationPct: 70, Status: model.StatusWarning, OSFamily: model.OSLinux, ObservedAt: observed}
	require.NoError(t, c.UpsertSnapshot(context.Background(), "10.0.0.5", snap))
	require.Eventually(t, func() bool { return capture.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	var got struct {
		Type      string        `json:"type"`
		Address   string        `json:"address"`
		Timestamp time.Time     `json:"timestamp"`
		Payload   SnapshotFrame `json:"payload"`
	}
	capture.mu.Lock()
	require.NoError(t, json.Unmarshal(capture.messages[0], &got))
	assert.Equal(t, []string{"Bearer tok"}, capture.auth)
	capture.mu.Unlock()

	assert.Equal(t, "health_snapshot", got.Type)
	assert.Equal(t, "10.0.0.5", got.Address)
	assert.True(t, observed.Equal(got.Timestamp))
	assert.Equal(t, "linux", got.Payload.OSFamily)
	assert.Equal(t, 70.0, got.Payload.Snapshot.CPUUtilizationPct)

	require.NoError(t, c.Close(context.Background()))
	assert.NoError(t, c.Close(context.Background()))
}

func TestWebSocketClientReconnects(t *testing.T) {
	capture, url := startWebSocketBackend(t)
	c := NewWebSocketClient(url, "", nil, time.Second, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer c.Close(context.Background())

	require.NoError(t, c.UpsertSnapshot(context.Background(), "10.0.0.5", model.MetricSnapshot{}))
	require.Eventually(t, func() bool { return capture.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	// Drop the client's socket underneath it; the next write must redial.
	c.mu.Lock()
	_ = c.conn.Close()
	c.mu.Unlock()

	require.NoError(t, c.UpsertSnapshot(context.Background(), "10.0.0.5", model.MetricSnapshot{}))
	require.Eventually(t, func() bool { return capture.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	capture.mu.Lock()
	defer capture.mu.Unlock()
	assert.Len(t, capture.conns, 2)
}

func TestWebSocketClientDialFailure(t *testing.T) {
	c := NewWebSocketClient("ws://127.0.0.1:1/ws/health", "", nil, 200*time.Millisecond, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := c.UpsertSnapshot(context.Background(), "10.0.0.5", model.MetricSnapshot{})
	assert.ErrorContains(t, err, "websocket dial")
}
