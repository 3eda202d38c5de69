package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-reservations/hub"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

type LiveController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewLiveController accepts handshakes from allowedOrigin, or from any origin when it is "*".
func NewLiveController(h *hub.Hub, allowedOrigin string) *LiveController {
	return &LiveController{
		Hub: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// LiveHandler -> endpoint WebSocket dashboard reservasi
func (lc *LiveController) LiveHandler(c *gin.Context) {
	subject := c.GetString("subject")

	ws, err := lc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	lc.Hub.RegisterClient(ws, subject)
	utils.InfoLogger.Printf("Live client connected: %s", subject)

	// dashboards only listen; reading keeps close frames flowing
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	lc.Hub.UnregisterClient(ws)
	utils.InfoLogger.Printf("Live client disconnected: %s", subject)
}
