package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cluster-monitor/internal/monitor"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_SendsCurrentSnapshotOnConnect(t *testing.T) {
	cache := monitor.NewCache()
	ts := "2026-08-30 12:00:00 UTC"
	snap := monitor.Snapshot{
		Positions:   []monitor.Position{{Account: "A", Coin: "BTC", Kind: monitor.KindPerp, Size: -1}},
		Summary:     monitor.Summary{NumPositions: 1},
		LastUpdated: &ts,
	}
	cache.Publish(snap)

	hub := NewHub(cache, zerolog.Nop())
	conn := dialHub(t, hub)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, body, err := conn.ReadMessage()
	require.NoError(t, err)

	var got monitor.Snapshot
	require.NoError(t, sonic.Unmarshal(body, &got))
	assert.Equal(t, 1, got.Summary.NumPositions)
	require.NotNil(t, got.LastUpdated)
	assert.Equal(t, ts, *got.LastUpdated)
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	cache := monitor.NewCache()
	hub := NewHub(cache, zerolog.Nop())
	conn := dialHub(t, hub)

	// drain the connect-time snapshot
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	ts := "2026-08-30 12:00:30 UTC"
	hub.Broadcast(monitor.Snapshot{Summary: monitor.Summary{NumPositions: 7}, LastUpdated: &ts})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, body, err := conn.ReadMessage()
	require.NoError(t, err)

	var got monitor.Snapshot
	require.NoError(t, sonic.Unmarshal(body, &got))
	assert.Equal(t, 7, got.Summary.NumPositions)
}

// Connect-time sends run on the HTTP handler goroutine while Broadcast
// runs on the monitor goroutine; both must be able to hit the same
// connection at once without tripping gorilla's single-writer rule.
// Run with -race.
func TestHub_ConcurrentConnectAndBroadcast(t *testing.T) {
	cache := monitor.NewCache()
	hub := NewHub(cache, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	ts := "2026-08-30 12:01:00 UTC"
	snap := monitor.Snapshot{Summary: monitor.Summary{NumPositions: 1}, LastUpdated: &ts}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			select {
			case <-stop:
				return
			default:
				hub.Broadcast(snap)
			}
		}
	}()

	conns := make([]*websocket.Conn, 0, 20)
	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		conns = append(conns, conn)
	}
	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()

	// every client reads a complete snapshot while the broadcaster spins
	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, body, err := conn.ReadMessage()
		require.NoError(t, err)

		var got monitor.Snapshot
		require.NoError(t, sonic.Unmarshal(body, &got))
		require.NotNil(t, got.LastUpdated)
	}

	close(stop)
	wg.Wait()
}
