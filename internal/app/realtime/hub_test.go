package realtime

import (
	"codecollab/internal/domain/model"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSession(t *testing.T, hub *Hub, sessionID string) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeSession(w, r, sessionID)
	}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHubBroadcastsToSessionClients(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn, closeFn := dialSession(t, hub, "s1")
	defer closeFn()
	other, closeOther := dialSession(t, hub, "s2")
	defer closeOther()

	require.Eventually(t, func() bool {
		return hub.ClientCount("s1") == 1 && hub.ClientCount("s2") == 1
	}, time.Second, 10*time.Millisecond)

	session := model.NewCodingSession("s1", "p1", "pairing", "owner", time.Now())
	session.ReplaceContent("package main")
	require.NoError(t, hub.Publish(context.Background(), NewSessionEvent(EventContentUpdated, session, "owner")))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got SessionEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, EventContentUpdated, got.Type)
	assert.Equal(t, "s1", got.SessionID)
	require.NotNil(t, got.Content)
	assert.Equal(t, "package main", *got.Content)
	assert.Equal(t, int64(1), got.ContentVersion)
	assert.Equal(t, model.ParticipantSet{"owner"}, got.Participants)

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "clients of other sessions receive nothing")
}

func TestHubBlockedWriterDoesNotStallOtherSessions(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, closeSlow := dialSession(t, hub, "slow")
	defer closeSlow()
	fast, closeFast := dialSession(t, hub, "fast")
	defer closeFast()

	require.Eventually(t, func() bool {
		return hub.ClientCount("slow") == 1 && hub.ClientCount("fast") == 1
	}, time.Second, 10*time.Millisecond)

	// Hold the slow client's writer so its broadcast blocks mid-write.
	hub.mu.Lock()
	var stalled *client
	for _, c := range hub.clients["slow"] {
		stalled = c
	}
	hub.mu.Unlock()
	stalled.writeMu.Lock()

	slowDone := make(chan struct{})
	go func() {
		hub.Broadcast(SessionEvent{Type: EventSessionEnded, SessionID: "slow"})
		close(slowDone)
	}()

	fastDone := make(chan struct{})
	go func() {
		hub.Broadcast(SessionEvent{Type: EventSessionEnded, SessionID: "fast"})
		close(fastDone)
	}()
	select {
	case <-fastDone:
	case <-time.After(time.Second):
		t.Fatal("broadcast to another session waited on the blocked writer")
	}

	fast.SetReadDeadline(time.Now().Add(time.Second))
	var got SessionEvent
	require.NoError(t, fast.ReadJSON(&got))
	assert.Equal(t, "fast", got.SessionID)

	stalled.writeMu.Unlock()
	<-slowDone
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub()
	conn, closeFn := dialSession(t, hub, "s1")
	defer closeFn()

	require.Eventually(t, func() bool { return hub.ClientCount("s1") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount("s1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestNewSessionEventOnlyCarriesContentForContentUpdates(t *testing.T) {
	session := model.NewCodingSession("s1", "p1", "pairing", "owner", time.Now())
	session.Content = "secret draft"

	joined := NewSessionEvent(EventParticipantJoined, session, "guest")
	assert.Nil(t, joined.Content)
	assert.Equal(t, "guest", joined.UserID)

	updated := NewSessionEvent(EventContentUpdated, session, "owner")
	require.NotNil(t, updated.Content)
	assert.Equal(t, "secret draft", *updated.Content)
}
