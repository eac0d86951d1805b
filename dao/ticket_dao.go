// dao/ticket_dao.go
package dao

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	platform_errors "github.com/apipatb/earning-sub014/errors"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
)

type TicketDAO struct {
	DB *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{DB: db}
}

func (dao *TicketDAO) CreateTicket(ctx context.Context, ticket model.Ticket) (*model.Ticket, error) {
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.Status == "" {
		ticket.Status = "open"
	}

	if err := dao.DB.WithContext(ctx).Create(&ticket).Error; err != nil {
		logger.Error("Failed to create ticket", zap.Error(err), zap.String("ownerID", ticket.OwnerID))
		return nil, platform_errors.ErrDatabaseOperation
	}

	logger.Info("Ticket created successfully",
		zap.String("ticketID", ticket.ID),
		zap.String("ownerID", ticket.OwnerID))
	return &ticket, nil
}

func (dao *TicketDAO) GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := dao.DB.WithContext(ctx).First(&ticket, "id = ?", ticketID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platform_errors.ErrTicketNotFound
		}
		logger.Error("Failed to retrieve ticket", zap.Error(err), zap.String("ticketID", ticketID))
		return nil, platform_errors.ErrDatabaseOperation
	}
	return &ticket, nil
}

func (dao *TicketDAO) ListTickets(ctx context.Context, ownerID string, limit, offset int) ([]*model.Ticket, error) {
	query := dao.DB.WithContext(ctx).Model(&model.Ticket{})
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}

	var tickets []*model.Ticket
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&tickets).Error
	if err != nil {
		logger.Error("Failed to list tickets", zap.Error(err), zap.String("ownerID", ownerID))
		return nil, platform_errors.ErrDatabaseOperation
	}
	return tickets, nil
}

func (dao *TicketDAO) UpdateTicketStatus(ctx context.Context, ticketID, status string) (*model.Ticket, error) {
	result := dao.DB.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ?", ticketID).
		Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update ticket status", zap.Error(result.Error), zap.String("ticketID", ticketID))
		return nil, platform_errors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return nil, platform_errors.ErrTicketNotFound
	}
	return dao.GetTicket(ctx, ticketID)
}
