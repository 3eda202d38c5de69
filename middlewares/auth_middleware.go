package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextSubject = "subject"
	ContextRole    = "role"
)

// AuthMiddleware validates the bearer token of the request. When enabled is false every
// request passes as an anonymous admin, which is meant for local development only.
func AuthMiddleware(secret []byte, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Set(ContextSubject, "anonymous")
			c.Set(ContextRole, utils.RoleAdmin)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Token de acesso ausente."))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Formato de token inválido."))
			c.Abort()
			return
		}

		authenticate(c, secret, strings.TrimPrefix(authHeader, "Bearer "))
	}
}

func authenticate(c *gin.Context, secret []byte, tokenString string) {
	claims, err := utils.ParseToken(secret, tokenString)
	if err != nil || claims == nil || claims.Subject == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("Token inválido ou expirado."))
		c.Abort()
		return
	}

	c.Set(ContextSubject, claims.Subject)
	c.Set(ContextRole, claims.Role)
	c.Next()
}
