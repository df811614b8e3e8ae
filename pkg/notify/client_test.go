package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-leaksim/pkg/config"
	"github.com/opd-ai/go-leaksim/pkg/geometry"
)

func testNotifierConfig(url string) config.NotifierConfig {
	cfg := config.DefaultConfig().Notifier
	cfg.URL = url
	cfg.Timeout = time.Second
	cfg.BreakerMaxFailures = 2
	cfg.BreakerTimeout = time.Minute
	return cfg
}

func TestClient_SendPostsLocation(t *testing.T) {
	var got map[string][]float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(testNotifierConfig(server.URL), nil)
	code, err := client.Send(context.Background(), geometry.Point{X: 2.5, Y: 3})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string][]float64{"location": {2.5, 3}}, got)
	assert.Equal(t, "closed", client.State())
}

func TestClient_SendNon2xxIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testNotifierConfig(server.URL), nil)
	code, err := client.Send(context.Background(), geometry.Point{X: 1, Y: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, uint32(1), client.Counts().ConsecutiveFailures)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testNotifierConfig(server.URL), nil)
	for i := 0; i < 2; i++ {
		_, err := client.Send(context.Background(), geometry.Point{})
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.State())

	_, err := client.Send(context.Background(), geometry.Point{})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the sink")
}

func TestClient_SendNeverRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testNotifierConfig(server.URL)
	cfg.BreakerMaxFailures = 10
	client := NewClient(cfg, nil)

	_, err := client.Send(context.Background(), geometry.Point{})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_SendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := testNotifierConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond
	client := NewClient(cfg, nil)

	start := time.Now()
	_, err := client.Send(context.Background(), geometry.Point{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestClient_SendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(testNotifierConfig(url), nil)
	code, err := client.Send(context.Background(), geometry.Point{})
	assert.Error(t, err)
	assert.Zero(t, code)
}

func TestJournal_RecordsReturnsCopy(t *testing.T) {
	j := NewJournal()
	j.Append(Record{LeakID: 1, Status: StatusSent})
	j.Append(Record{LeakID: 2, Status: StatusFailed})
	j.Append(Record{LeakID: 3, Status: StatusSent})

	records := j.Records()
	require.Len(t, records, 3)
	records[0].LeakID = 99

	assert.Equal(t, uint64(1), j.Records()[0].LeakID)
	assert.Equal(t, 2, j.Count(StatusSent))
	assert.Equal(t, 1, j.Count(StatusFailed))
	assert.Zero(t, j.Count(StatusDropped))
}
