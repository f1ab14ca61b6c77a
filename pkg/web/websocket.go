package web

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/framelens/pkg/metrics"
)

// Envelope wraps a response sent over /ws/analyze.
type Envelope struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

// handleAnalyzeWS serves /ws/analyze. Every message is an analysis request
// body; replies are sent in order, one per message. A message larger than
// the HTTP body limit closes the connection.
func (s *Server) handleAnalyzeWS(c *websocket.Conn) {
	limit := s.cfg.BodyLimit
	if limit <= 0 {
		limit = fiber.DefaultBodyLimit
	}
	c.SetReadLimit(int64(limit))

	connID, _ := c.Locals(localsRequestID).(string)
	logger := s.logger.With("conn_id", connID)

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()
	logger.Debug("websocket connected")

	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			logger.Debug("websocket closed", "error", err)
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		status, body := s.process(context.Background(), data, uuid.NewString())
		metrics.ObserveRequest("ws", status)

		if err := c.WriteJSON(Envelope{Status: status, Body: body}); err != nil {
			logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}
