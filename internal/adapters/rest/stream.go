package rest

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ewilliams-labs/moodmelody/internal/core/services"
)

const (
	stateWriteWait  = 10 * time.Second
	statePongWait   = 60 * time.Second
	statePingPeriod = statePongWait * 9 / 10
)

// StateStream handles GET /v1/state/ws. The current state is sent on connect
// and after every change. Intermediate states may be skipped for slow
// clients; the latest one is always delivered.
func (h *Handler) StateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN rest: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates := make(chan services.State, 1)
	push := func(s services.State) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			// Replace the undelivered state with the newer one.
			select {
			case <-updates:
			default:
			}
		}
	}
	unsubscribe := h.svc.Subscribe(push)
	defer unsubscribe()
	push(h.svc.Snapshot())

	// The read loop only detects disconnects and answers control frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(statePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(statePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case s := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(stateWriteWait))
			if err := conn.WriteJSON(s); err != nil {
				log.Printf("DEBUG rest: state stream write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(stateWriteWait)); err != nil {
				return
			}
		}
	}
}
