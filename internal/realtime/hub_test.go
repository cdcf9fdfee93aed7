package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmind/internal/events"
	"github.com/abhisek/quizmind/internal/logger"
)

func TestHub_BroadcastDropsWhenFull(t *testing.T) {
	h := NewHub(logger.NewNop())
	c := h.AddClient()
	defer h.RemoveClient(c)

	for i := 0; i < clientBuffer+5; i++ {
		h.Broadcast(events.Message{Event: events.LeaderboardUpdate})
	}
	assert.Len(t, c.Outbound, clientBuffer)
}

func TestHub_RemoveClient(t *testing.T) {
	h := NewHub(logger.NewNop())
	c1 := h.AddClient()
	c2 := h.AddClient()
	require.Equal(t, 2, h.Len())

	h.RemoveClient(c1)
	h.RemoveClient(c1)
	assert.Equal(t, 1, h.Len())

	h.Broadcast(events.Message{Event: events.LeaderboardUpdate})
	assert.Len(t, c1.Outbound, 0)
	assert.Len(t, c2.Outbound, 1)
}

func TestHub_ServeWritesEvents(t *testing.T) {
	h := NewHub(logger.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := h.AddClient()
		defer h.RemoveClient(c)
		h.Serve(w, r, c)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)

	msg, err := events.NewMessage(events.LeaderboardUpdate, map[string]string{"topic": "History"})
	require.NoError(t, err)
	h.Broadcast(msg)

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "event: leaderboard:update", lines[0])

	var data map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &data))
	assert.Equal(t, "History", data["topic"])
}
