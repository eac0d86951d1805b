// service/ticket_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/apipatb/earning-sub014/dao"
	platform_errors "github.com/apipatb/earning-sub014/errors"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
	"github.com/apipatb/earning-sub014/util"
)

// ITicketService defines the interface for support ticket operations
type ITicketService interface {
	CreateTicket(ctx context.Context, ticket model.Ticket, creatorID string) (*model.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error)
	ListTickets(ctx context.Context, ownerID string, limit, offset int) ([]*model.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID, status, updaterID string) (*model.Ticket, error)
}

type TicketService struct {
	ticketDAO      *dao.TicketDAO
	validationUtil *util.ValidationUtil
}

var _ ITicketService = &TicketService{}

func NewTicketService(ticketDAO *dao.TicketDAO, validationUtil *util.ValidationUtil) *TicketService {
	return &TicketService{
		ticketDAO:      ticketDAO,
		validationUtil: validationUtil,
	}
}

func (s *TicketService) CreateTicket(ctx context.Context, ticket model.Ticket, creatorID string) (*model.Ticket, error) {
	ticket.OwnerID = creatorID
	if err := s.validationUtil.ValidateTicket(ticket); err != nil {
		return nil, fmt.Errorf("%w: %v", platform_errors.ErrInvalidTicketData, err)
	}

	created, err := s.ticketDAO.CreateTicket(ctx, ticket)
	if err != nil {
		logger.Error("Error creating ticket", zap.Error(err), zap.String("creatorID", creatorID))
		return nil, err
	}

	return created, nil
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error) {
	return s.ticketDAO.GetTicket(ctx, ticketID)
}

func (s *TicketService) ListTickets(ctx context.Context, ownerID string, limit, offset int) ([]*model.Ticket, error) {
	return s.ticketDAO.ListTickets(ctx, ownerID, limit, offset)
}

func (s *TicketService) UpdateTicketStatus(ctx context.Context, ticketID, status, updaterID string) (*model.Ticket, error) {
	switch status {
	case "open", "pending", "closed":
	default:
		return nil, fmt.Errorf("%w: invalid status %q", platform_errors.ErrInvalidTicketData, status)
	}

	updated, err := s.ticketDAO.UpdateTicketStatus(ctx, ticketID, status)
	if err != nil {
		return nil, err
	}

	logger.Info("Ticket status updated",
		zap.String("ticketID", ticketID),
		zap.String("status", status),
		zap.String("updaterID", updaterID))
	return updated, nil
}
