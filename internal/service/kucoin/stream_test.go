package kucoin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamTestServer serves the bullet-public handshake and a websocket
// endpoint that pushes one tickerV2 frame per connection. The price
// increments per connection so tests can tell connections apart.
func streamTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var connSeq atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/bullet-public", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"200000","data":{"token":"tok","instanceServers":[{"endpoint":"ws://ignored","pingInterval":50}]}}`)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// subscribe request
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		n := connSeq.Add(1)
		frame := fmt.Sprintf(
			`{"type":"message","subject":"tickerV2","data":{"symbol":"TIAUSDTM","price":"%d.5","size":3,"ts":1700000000000000000}}`,
			n,
		)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}

		// hold the connection open; pings are answered implicitly
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return srv, wsURL
}

func newTestStream(t *testing.T) *Stream {
	srv, wsURL := streamTestServer(t)
	s := NewStream(srv.URL, wsURL, "TIA/USDT:USDT", time.Millisecond, 10*time.Millisecond, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStreamReadDeliversTicks(t *testing.T) {
	s := newTestStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Subscribe(ctx))

	ticks, errs := s.Read(ctx)
	select {
	case tick := <-ticks:
		assert.Equal(t, "TIA/USDT:USDT", tick.Instrument)
		assert.InDelta(t, 1.5, tick.Price, 1e-9)
		assert.InDelta(t, 3.0, tick.Size, 1e-9)
		assert.Equal(t, int64(1700000000000), tick.Timestamp) // ns -> ms
	case err := <-errs:
		t.Fatalf("unexpected stream error: %v", err)
	case <-ctx.Done():
		t.Fatal("no tick before deadline")
	}
}

func TestStreamReadWithoutConnect(t *testing.T) {
	s := newTestStream(t)

	ticks, errs := s.Read(context.Background())
	err, ok := <-errs
	require.True(t, ok)
	assert.Error(t, err)
	_, ok = <-ticks
	assert.False(t, ok)
}

func TestStreamReconnectReplacesConnection(t *testing.T) {
	s := newTestStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Subscribe(ctx))
	oldTicks, _ := s.Read(ctx)

	// drain the first connection's tick
	select {
	case tick := <-oldTicks:
		assert.InDelta(t, 1.5, tick.Price, 1e-9)
	case <-ctx.Done():
		t.Fatal("no tick from first connection")
	}

	require.NoError(t, s.Reconnect(ctx))

	// the previous Read's goroutines are bound to the torn-down
	// connection and must terminate, closing their channel
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-oldTicks:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "old tick channel never closed after reconnect")

	ticks, errs := s.Read(ctx)
	select {
	case tick := <-ticks:
		assert.InDelta(t, 2.5, tick.Price, 1e-9)
	case err := <-errs:
		t.Fatalf("unexpected stream error after reconnect: %v", err)
	case <-ctx.Done():
		t.Fatal("no tick from second connection")
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	s := newTestStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
