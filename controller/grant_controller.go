// controller/grant_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	platform_errors "github.com/apipatb/earning-sub014/errors"
	"github.com/apipatb/earning-sub014/model"
	"github.com/apipatb/earning-sub014/service"
	"github.com/apipatb/earning-sub014/util"
	helper_util "github.com/apipatb/earning-sub014/util/helper"
)

type GrantController struct {
	permissionService service.IPermissionService
	rateLimitService  service.IRateLimitService
}

func NewGrantController(permissionService service.IPermissionService, rateLimitService service.IRateLimitService) *GrantController {
	return &GrantController{
		permissionService: permissionService,
		rateLimitService:  rateLimitService,
	}
}

// RegisterRoutes registers the administrative authorization API
func (gc *GrantController) RegisterRoutes(r *gin.RouterGroup) {
	grants := r.Group("/grants")
	{
		grants.POST("", gc.CreateGrant)
		grants.DELETE("", gc.RevokeGrant)
		grants.GET("", gc.ListGrants)
	}
	authz := r.Group("/authz")
	{
		authz.POST("/check", gc.CheckPermission)
		authz.GET("/ratelimit", gc.GetRateLimitStatus)
		authz.DELETE("/ratelimit", gc.ResetRateLimit)
	}
}

type grantRequest struct {
	SubjectID string          `json:"subject_id" binding:"required"`
	Resource  string          `json:"resource" binding:"required"`
	Action    string          `json:"action" binding:"required"`
	Condition model.Condition `json:"condition" binding:"required"`
}

// CreateGrant endpoint
func (gc *GrantController) CreateGrant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid grant data", err)
		return
	}
	granterID, err := util.GetSubjectIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", platform_errors.ErrUnauthorized)
		return
	}

	grant := model.PermissionGrant{
		SubjectID: req.SubjectID,
		Resource:  req.Resource,
		Action:    req.Action,
	}
	grant.ApplyCondition(req.Condition)

	created, err := gc.permissionService.Grant(c, grant, granterID)
	if err != nil {
		switch {
		case errors.Is(err, platform_errors.ErrInvalidRateLimit):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid rate limit configuration", err)
		case errors.Is(err, platform_errors.ErrInvalidGrantData):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid grant data", err)
		case errors.Is(err, platform_errors.ErrStoreUnavailable):
			util.RespondWithError(c, http.StatusServiceUnavailable, "Grant store unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to create grant", platform_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// RevokeGrant endpoint
func (gc *GrantController) RevokeGrant(c *gin.Context) {
	subjectID := c.Query("subject_id")
	resource := c.Query("resource")
	action := c.Query("action")
	if subjectID == "" || resource == "" || action == "" {
		util.RespondWithError(c, http.StatusBadRequest, "subject_id, resource and action are required", platform_errors.ErrInvalidGrantData)
		return
	}
	revokerID, err := util.GetSubjectIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", platform_errors.ErrUnauthorized)
		return
	}

	if err := gc.permissionService.Revoke(c, subjectID, resource, action, revokerID); err != nil {
		switch {
		case errors.Is(err, platform_errors.ErrGrantNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Grant not found", err)
		case errors.Is(err, platform_errors.ErrStoreUnavailable):
			util.RespondWithError(c, http.StatusServiceUnavailable, "Grant store unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to revoke grant", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListGrants endpoint
func (gc *GrantController) ListGrants(c *gin.Context) {
	subjectID := c.Query("subject_id")
	if subjectID == "" {
		util.RespondWithError(c, http.StatusBadRequest, "subject_id is required", platform_errors.ErrInvalidGrantData)
		return
	}
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	grants, err := gc.permissionService.ListGrants(c, subjectID, limit, offset)
	if err != nil {
		if errors.Is(err, platform_errors.ErrStoreUnavailable) {
			util.RespondWithError(c, http.StatusServiceUnavailable, "Grant store unavailable", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to list grants", err)
		}
		return
	}

	c.JSON(http.StatusOK, grants)
}

type checkRequest struct {
	SubjectID string               `json:"subject_id" binding:"required"`
	Resource  string               `json:"resource" binding:"required"`
	Action    string               `json:"action" binding:"required"`
	Context   model.RequestContext `json:"context"`
}

// CheckPermission endpoint: evaluates a decision without consuming quota.
func (gc *GrantController) CheckPermission(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid check request", err)
		return
	}
	if req.Context.SubjectID == "" {
		req.Context.SubjectID = req.SubjectID
	}

	decision, err := gc.permissionService.CheckPermission(c, req.SubjectID, req.Resource, req.Action, req.Context)
	if err != nil {
		if errors.Is(err, platform_errors.ErrStoreUnavailable) {
			util.RespondWithError(c, http.StatusServiceUnavailable, "Counter store unavailable", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to check permission", err)
		}
		return
	}

	c.JSON(http.StatusOK, decision)
}

// GetRateLimitStatus endpoint: monitoring view of one window, no side effects.
func (gc *GrantController) GetRateLimitStatus(c *gin.Context) {
	action := c.Query("action")
	subjectID := c.Query("subject_id")
	if action == "" || subjectID == "" {
		util.RespondWithError(c, http.StatusBadRequest, "action and subject_id are required", platform_errors.ErrInvalidGrantData)
		return
	}

	grant, err := gc.permissionService.GetGrant(c, subjectID, c.Query("resource"), action)
	if err != nil {
		switch {
		case errors.Is(err, platform_errors.ErrGrantNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Grant not found", err)
		case errors.Is(err, platform_errors.ErrStoreUnavailable):
			util.RespondWithError(c, http.StatusServiceUnavailable, "Grant store unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve grant", err)
		}
		return
	}
	cond := grant.Condition()
	if cond.RateLimit == nil {
		util.RespondWithError(c, http.StatusBadRequest, "Grant has no rate limit configured", platform_errors.ErrInvalidRateLimit)
		return
	}

	status, err := gc.rateLimitService.GetRateLimitStatus(c, action, subjectID, cond.RateLimit.MaxActions, cond.RateLimit.WindowMinutes)
	if err != nil {
		util.RespondWithError(c, http.StatusServiceUnavailable, "Counter store unavailable", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ResetRateLimit endpoint: administrative window reset.
func (gc *GrantController) ResetRateLimit(c *gin.Context) {
	action := c.Query("action")
	subjectID := c.Query("subject_id")
	if action == "" || subjectID == "" {
		util.RespondWithError(c, http.StatusBadRequest, "action and subject_id are required", platform_errors.ErrInvalidGrantData)
		return
	}
	actorID, err := util.GetSubjectIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", platform_errors.ErrUnauthorized)
		return
	}

	if err := gc.permissionService.ResetRateLimit(c, action, subjectID, actorID); err != nil {
		if errors.Is(err, platform_errors.ErrStoreUnavailable) {
			util.RespondWithError(c, http.StatusServiceUnavailable, "Counter store unavailable", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to reset rate limit", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}
