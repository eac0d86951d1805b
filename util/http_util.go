// util/http_util.go
package util

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/apipatb/earning-sub014/logging"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// GetSubjectIDFromContext returns the authenticated principal set by the auth
// middleware.
func GetSubjectIDFromContext(c *gin.Context) (string, error) {
	subjectID, exists := c.Get("subjectID")
	if !exists {
		return "", fmt.Errorf("no authenticated subject in request context")
	}
	return subjectID.(string), nil
}

// GetSubjectTeamsFromContext returns the team memberships of the authenticated
// principal, or nil when none were supplied.
func GetSubjectTeamsFromContext(c *gin.Context) []string {
	teams, exists := c.Get("subjectTeams")
	if !exists {
		return nil
	}
	return teams.([]string)
}
