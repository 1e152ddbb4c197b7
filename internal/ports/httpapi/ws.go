package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"tiledraft/internal/table"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// handleWS streams table events as {type,data} frames. The first frame is a
// "table_state" snapshot so late joiners can render the table.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	s.logger.Info("ws connect", zap.String("remote", r.RemoteAddr))

	events, unsubscribe := s.table.Subscribe()
	defer unsubscribe()

	state, err := s.table.State()
	if err != nil {
		_ = conn.Close()
		return
	}
	if err := writeFrame(conn, envelope{Type: "table_state", Data: table.StateFields(state, "")}); err != nil {
		_ = conn.Close()
		return
	}

	// Reader only watches for the client going away.
	go func() {
		defer unsubscribe()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer conn.Close()
	for ev := range events {
		env, ok := toEnvelope(ev)
		if !ok {
			continue
		}
		if err := writeFrame(conn, env); err != nil {
			s.logger.Debug("ws write failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}
	}
	s.logger.Info("ws disconnect", zap.String("remote", r.RemoteAddr))
}

func writeFrame(conn *websocket.Conn, env envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}
