package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dispatchboard/internal/metrics"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	wsReadWait   = 60 * time.Second
	wsPingPeriod = 20 * time.Second
)

// WSHandler handles /v1/ws. The server pushes refresh events; client
// messages are read only to service pongs and detect disconnects.
func (s *Server) WSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	metrics.WSClients.Inc()
	defer metrics.WSClients.Dec()

	p := principalFrom(r.Context())
	ch := s.Broker.Subscribe(TopicRefresh)
	defer s.Broker.Unsubscribe(TopicRefresh, ch)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(wsReadWait)); return nil })

	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := write(Event{Type: "hello", Data: map[string]any{"user": p.User, "ts": s.Now().UTC().Format(time.RFC3339)}}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := write(evt); err != nil {
				zap.L().Debug("ws write", zap.String("user", p.User), zap.Error(err))
				return
			}
		case <-ticker.C:
			wmu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			wmu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
