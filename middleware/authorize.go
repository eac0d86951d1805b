// middleware/authorize.go
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apipatb/earning-sub014/config"
	platform_errors "github.com/apipatb/earning-sub014/errors"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
	"github.com/apipatb/earning-sub014/service"
	"github.com/apipatb/earning-sub014/util"
)

// TargetResolver computes the target-ownership context for a guarded request,
// e.g. by loading the addressed record and reporting its owner. When nil, the
// subject is assumed to be acting on its own records.
type TargetResolver func(c *gin.Context, subjectID string) (model.RequestContext, error)

// RequirePermission guards an endpoint with the authorization engine.
// Checking and consuming quota are two explicit steps: the check runs before
// the handler, the increment only after the handler completed below the error
// threshold, so a failed downstream action does not consume quota.
//
// When the grant store or the counter store is unreachable the authz.failOpen
// setting decides between allowing the request (default; an authorization
// outage should not become a full-service outage) and denying with 503.
func RequirePermission(
	permissionSvc service.IPermissionService,
	rateLimitSvc service.IRateLimitService,
	resource, action string,
	resolver TargetResolver,
) gin.HandlerFunc {
	failOpen := config.GetBool("authz.failOpen")

	return func(c *gin.Context) {
		subjectID, err := util.GetSubjectIDFromContext(c)
		if err != nil {
			util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", platform_errors.ErrUnauthorized)
			c.Abort()
			return
		}

		reqCtx := model.RequestContext{
			SubjectID:      subjectID,
			TargetOwnerID:  subjectID,
			SubjectTeamIDs: util.GetSubjectTeamsFromContext(c),
		}
		if resolver != nil {
			reqCtx, err = resolver(c, subjectID)
			if err != nil {
				if errors.Is(err, platform_errors.ErrTicketNotFound) {
					util.RespondWithError(c, http.StatusNotFound, "Resource not found", err)
				} else {
					util.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve request target", err)
				}
				c.Abort()
				return
			}
		}

		decision, err := permissionSvc.CheckPermission(c, subjectID, resource, action, reqCtx)
		if err != nil {
			if errors.Is(err, platform_errors.ErrStoreUnavailable) {
				if failOpen {
					logger.Warn("Authorization store unavailable, failing open",
						zap.Error(err),
						zap.String("subjectID", subjectID),
						zap.String("resource", resource),
						zap.String("action", action))
					c.Next()
					return
				}
				logger.Error("Authorization store unavailable, failing closed",
					zap.Error(err),
					zap.String("subjectID", subjectID),
					zap.String("resource", resource),
					zap.String("action", action))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error":  "Permission denied",
					"reason": model.ReasonStoreUnavailable,
				})
				c.Abort()
				return
			}
			util.RespondWithError(c, http.StatusInternalServerError, "Authorization check failed", err)
			c.Abort()
			return
		}

		if decision.RateLimit != nil {
			setRateLimitHeaders(c, decision.RateLimit)
		}

		if !decision.Granted {
			if decision.Reason == model.ReasonRateLimitExceeded {
				retryAfter := int(time.Until(decision.RateLimit.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Header("Retry-After", strconv.Itoa(retryAfter))
				logger.Warn("Rate limit exceeded",
					zap.String("subjectID", subjectID),
					zap.String("resource", resource),
					zap.String("action", action),
					zap.Int64("current", decision.RateLimit.Current),
					zap.Int("limit", decision.RateLimit.Limit))
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":       "Rate limit exceeded",
					"limit":       decision.RateLimit.Limit,
					"current":     decision.RateLimit.Current,
					"reset_at":    decision.RateLimit.ResetAt.UTC().Format(time.RFC3339),
					"retry_after": retryAfter,
				})
			} else {
				c.JSON(http.StatusForbidden, gin.H{
					"error":  "Permission denied",
					"reason": decision.Reason,
				})
			}
			c.Abort()
			return
		}

		c.Next()

		// Consume quota only now that the protected action actually went
		// through.
		if decision.RateLimit != nil && c.Writer.Status() < http.StatusBadRequest {
			if _, err := rateLimitSvc.IncrementRateLimit(c, action, subjectID, decision.RateLimit.WindowMinutes); err != nil {
				logger.Warn("Failed to consume rate limit quota",
					zap.Error(err),
					zap.String("subjectID", subjectID),
					zap.String("action", action))
			}
		}
	}
}

func setRateLimitHeaders(c *gin.Context, status *model.RateLimitStatus) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(status.Limit))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(status.Remaining, 10))
	c.Header("X-RateLimit-Reset", status.ResetAt.UTC().Format(time.RFC3339))
}
