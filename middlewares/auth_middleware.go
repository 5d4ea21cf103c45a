package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/otaviofreire/comanda-app/utils"
)

// AuthMiddleware validates the bearer token and exposes the attendant
// identity (user id, display name, claiming device) to the handlers.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("token nao informado"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims == nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("token invalido ou expirado"))
			c.Abort()
			return
		}

		if claims.UserID == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("token sem usuario"))
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("attendant_name", claims.Name)
		c.Set("device_id", claims.DeviceID)

		c.Next()
	}
}
