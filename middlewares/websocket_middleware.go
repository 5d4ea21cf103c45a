package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/otaviofreire/comanda-app/utils"
)

// WebSocketAuthMiddleware authenticates the live connection. Browsers cannot
// set headers on websocket upgrades, so the token travels as a query param.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("attendant_name", claims.Name)
		c.Set("device_id", claims.DeviceID)

		c.Next()
	}
}
