package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-leaksim/pkg/engine"
	"github.com/opd-ai/go-leaksim/pkg/geometry"
	"github.com/opd-ai/go-leaksim/pkg/validation"
)

type countingSource struct {
	calls atomic.Uint64
}

func (s *countingSource) Snapshot() engine.State {
	n := s.calls.Add(1)
	return engine.State{
		Tick:  n,
		Drone: engine.DroneState{Position: geometry.Point{X: 5, Y: 5}, Radius: 0.1},
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestHandler_StreamsSnapshots(t *testing.T) {
	h := NewHandler(context.Background(), &countingSource{}, 10*time.Millisecond, nil, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	var first, second engine.State
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, uint64(1), first.Tick)
	assert.Greater(t, second.Tick, first.Tick)
	assert.Equal(t, geometry.Point{X: 5, Y: 5}, second.Drone.Position)
	assert.Eventually(t, func() bool { return h.Active() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHandler_ClientDisconnect(t *testing.T) {
	h := NewHandler(context.Background(), &countingSource{}, 10*time.Millisecond, nil, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	var state engine.State
	require.NoError(t, conn.ReadJSON(&state))
	conn.Close()

	assert.Eventually(t, func() bool { return h.Active() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHandler_ContextCancelClosesStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHandler(ctx, &countingSource{}, 10*time.Millisecond, nil, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	var state engine.State
	require.NoError(t, conn.ReadJSON(&state))
	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	for {
		if err = conn.ReadJSON(&state); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error %v", err)
}

func TestHandler_RateLimitsPerHost(t *testing.T) {
	limiter := validation.NewRateLimiter(1, time.Minute)
	defer limiter.Close()

	h := NewHandler(context.Background(), &countingSource{}, 10*time.Millisecond, limiter, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	h := NewHandler(context.Background(), &countingSource{}, time.Second, nil, nil)
	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientHost(t *testing.T) {
	assert.Equal(t, "127.0.0.1", clientHost("127.0.0.1:5555"))
	assert.Equal(t, "::1", clientHost("[::1]:80"))
	assert.Equal(t, "garbage", clientHost("garbage"))
}
