package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSPushesRefreshEvents(t *testing.T) {
	s := newTestServer(t, Options{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	hdr := http.Header{}
	hdr.Set("X-User", "ann")
	hdr.Set("X-Role", "manager")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/ws", hdr)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello Event
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	assert.Equal(t, "ann", hello.Data["user"])

	// the hello frame is written after Subscribe, so this publish is delivered
	s.Broker.Publish(TopicRefresh, Event{Type: "settings.updated", Data: map[string]any{"user": "bob"}})
	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "settings.updated", evt.Type)
	assert.Equal(t, "bob", evt.Data["user"])
}
