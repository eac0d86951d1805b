// middleware/auth.go
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/apipatb/earning-sub014/config"
	logger "github.com/apipatb/earning-sub014/logging"
)

// PlatformClaims are the platform token claims: the subject identifier plus
// the subject's team memberships, which the scope evaluator consumes as a
// precomputed set.
type PlatformClaims struct {
	jwt.RegisteredClaims
	Teams []string `json:"teams"`
}

// AuthMiddleware validates the bearer token and places the authenticated
// subject and its teams on the request context.
func AuthMiddleware() gin.HandlerFunc {
	secret := []byte(config.GetString("auth.jwtSecret"))
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			logger.Warn("No Authorization token provided")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &PlatformClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil {
			logger.Warn("Error parsing token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*PlatformClaims)
		if !ok || !token.Valid || claims.Subject == "" {
			logger.Warn("Invalid token or missing subject claim")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("subjectID", claims.Subject)
		c.Set("subjectTeams", claims.Teams)

		c.Next()
	}
}
