// controller/ticket_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	platform_errors "github.com/apipatb/earning-sub014/errors"
	"github.com/apipatb/earning-sub014/middleware"
	"github.com/apipatb/earning-sub014/model"
	"github.com/apipatb/earning-sub014/service"
	"github.com/apipatb/earning-sub014/util"
	helper_util "github.com/apipatb/earning-sub014/util/helper"
)

type TicketController struct {
	ticketService     service.ITicketService
	permissionService service.IPermissionService
	rateLimitService  service.IRateLimitService
}

func NewTicketController(
	ticketService service.ITicketService,
	permissionService service.IPermissionService,
	rateLimitService service.IRateLimitService,
) *TicketController {
	return &TicketController{
		ticketService:     ticketService,
		permissionService: permissionService,
		rateLimitService:  rateLimitService,
	}
}

// RegisterRoutes registers the guarded ticket API
func (tc *TicketController) RegisterRoutes(r *gin.RouterGroup) {
	guard := func(action string, resolver middleware.TargetResolver) gin.HandlerFunc {
		return middleware.RequirePermission(tc.permissionService, tc.rateLimitService, "ticket", action, resolver)
	}

	tickets := r.Group("/tickets")
	{
		tickets.POST("", guard("create", nil), tc.CreateTicket)
		tickets.GET("/:id", guard("read", tc.resolveTicketTarget), tc.GetTicket)
		tickets.GET("", guard("list", nil), tc.ListTickets)
		tickets.PUT("/:id/status", guard("update", tc.resolveTicketTarget), tc.UpdateTicketStatus)
	}
}

// resolveTicketTarget loads the addressed ticket and reports its ownership so
// OWN and TEAM scopes can be evaluated against the real record.
func (tc *TicketController) resolveTicketTarget(c *gin.Context, subjectID string) (model.RequestContext, error) {
	ticket, err := tc.ticketService.GetTicket(c, c.Param("id"))
	if err != nil {
		return model.RequestContext{}, err
	}

	reqCtx := model.RequestContext{
		SubjectID:      subjectID,
		TargetOwnerID:  ticket.OwnerID,
		SubjectTeamIDs: util.GetSubjectTeamsFromContext(c),
	}
	if ticket.TeamID != "" {
		reqCtx.TargetTeamIDs = []string{ticket.TeamID}
	}
	return reqCtx, nil
}

// CreateTicket endpoint
func (tc *TicketController) CreateTicket(c *gin.Context) {
	var ticket model.Ticket
	if err := c.ShouldBindJSON(&ticket); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid ticket data", platform_errors.ErrInvalidTicketData)
		return
	}
	creatorID, err := util.GetSubjectIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", platform_errors.ErrUnauthorized)
		return
	}

	created, err := tc.ticketService.CreateTicket(c, ticket, creatorID)
	if err != nil {
		if errors.Is(err, platform_errors.ErrInvalidTicketData) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid ticket data", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to create ticket", err)
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetTicket endpoint
func (tc *TicketController) GetTicket(c *gin.Context) {
	ticket, err := tc.ticketService.GetTicket(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, platform_errors.ErrTicketNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Ticket not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve ticket", err)
		}
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListTickets endpoint: lists the caller's own tickets.
func (tc *TicketController) ListTickets(c *gin.Context) {
	subjectID, err := util.GetSubjectIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", platform_errors.ErrUnauthorized)
		return
	}
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	tickets, err := tc.ticketService.ListTickets(c, subjectID, limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list tickets", err)
		return
	}

	c.JSON(http.StatusOK, tickets)
}

type ticketStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTicketStatus endpoint
func (tc *TicketController) UpdateTicketStatus(c *gin.Context) {
	var req ticketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid ticket status", platform_errors.ErrInvalidTicketData)
		return
	}
	updaterID, err := util.GetSubjectIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", platform_errors.ErrUnauthorized)
		return
	}

	updated, err := tc.ticketService.UpdateTicketStatus(c, c.Param("id"), req.Status, updaterID)
	if err != nil {
		switch {
		case errors.Is(err, platform_errors.ErrTicketNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Ticket not found", err)
		case errors.Is(err, platform_errors.ErrInvalidTicketData):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid ticket status", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update ticket", err)
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}
