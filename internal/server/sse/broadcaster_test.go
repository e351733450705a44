package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runBroadcaster(t *testing.T) (*Broadcaster, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(cancel)
	return b, cancel
}

// readEvent reads lines until a blank line terminates one event.
func readEvent(t *testing.T, r *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestBroadcaster_Stream(t *testing.T) {
	b, _ := runBroadcaster(t)

	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	connected := readEvent(t, reader)
	require.NotEmpty(t, connected)
	assert.Equal(t, "event: connected", connected[0])

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Broadcast(Event{Event: "astronaut.created", ID: "1", Data: map[string]string{"id": "9999"}})

	got := readEvent(t, reader)
	assert.Equal(t, []string{
		"event: astronaut.created",
		"id: 1",
		`data: {"id":"9999"}`,
	}, got)
}

func TestBroadcaster_ClientDisconnect(t *testing.T) {
	b, _ := runBroadcaster(t)

	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	assert.Eventually(t, func() bool { return b.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcaster_ShutdownEndsStreams(t *testing.T) {
	b, cancel := runBroadcaster(t)

	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader)
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	// The handler returns once its channel is closed, ending the body.
	done := make(chan struct{})
	go func() {
		_, _ = reader.ReadString('\n')
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after shutdown")
	}
}

func TestBroadcaster_RefusesAfterShutdown(t *testing.T) {
	b, cancel := runBroadcaster(t)
	cancel()
	<-b.done

	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/updates/stream", nil))

	// The buffered register channel may still accept the client; either
	// way the handler returns instead of blocking.
	assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, w.Code)
}

func TestBroadcaster_StreamOutlivesServerTimeouts(t *testing.T) {
	b, _ := runBroadcaster(t)

	srv := httptest.NewUnstartedServer(b)
	srv.Config.ReadTimeout = 200 * time.Millisecond
	srv.Config.WriteTimeout = 200 * time.Millisecond
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "event: connected", readEvent(t, reader)[0])
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(3 * srv.Config.WriteTimeout)
	b.Broadcast(Event{Event: "astronaut.created", ID: "1", Data: map[string]string{"id": "5555"}})

	lines := readEvent(t, reader)
	require.NotEmpty(t, lines)
	assert.Equal(t, "event: astronaut.created", lines[0])
}

func TestBroadcaster_KeepAlive(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)
	b.keepAlive = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader)

	assert.Equal(t, []string{": keepalive"}, readEvent(t, reader))
}
