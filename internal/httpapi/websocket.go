package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// upgrader mirrors pkg/api/websocket.go's upgrader; origin checking is left
// to the corsMiddleware in front of the rest of the API.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// progressHandler implements GET /runs/:id/progress: it upgrades to a
// websocket and relays every progress event published for runID until the
// client disconnects or the run's channel closes.
//
// Grounded on pkg/api/websocket.go's hub, simplified from a broadcast hub
// to one subscription per connection since each client only cares about a
// single run.
func (s *Server) progressHandler(c *gin.Context) {
	runID := c.Param("id")
	if s.cache == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: "progress streaming requires a run cache"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "runId", runID, "error", err)
		return
	}
	defer conn.Close()

	ch, unsubscribe, err := s.cache.SubscribeProgress(c.Request.Context(), runID)
	if err != nil {
		s.logger.Warn("subscribe progress failed", "runId", runID, "error", err)
		return
	}
	defer unsubscribe()

	if rs, ok := s.getRunState(runID); ok {
		_ = conn.WriteJSON(rs)
	}

	for payload := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
