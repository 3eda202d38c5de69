package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// WebSocketAuthMiddleware reads the token from the query string, since browsers cannot set
// headers on a websocket handshake.
func WebSocketAuthMiddleware(secret []byte, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Set(ContextSubject, "anonymous")
			c.Set(ContextRole, utils.RoleAdmin)
			c.Next()
			return
		}

		token := c.Query("token")
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Token de acesso ausente."))
			c.Abort()
			return
		}
		authenticate(c, secret, token)
	}
}
