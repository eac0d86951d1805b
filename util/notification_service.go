// util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
)

type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) NotifyGrantChange(ctx context.Context, changeType string, grant model.PermissionGrant) error {
	// In a real implementation, you might send this to a message queue or external notification service
	switch changeType {
	case "created":
		logger.Info("NOTIFICATION: Grant created",
			zap.String("subjectID", grant.SubjectID),
			zap.String("resource", grant.Resource),
			zap.String("action", grant.Action))
	case "revoked":
		logger.Info("NOTIFICATION: Grant revoked",
			zap.String("subjectID", grant.SubjectID),
			zap.String("resource", grant.Resource),
			zap.String("action", grant.Action))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}

	return nil
}

func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	// Logic to notify all system administrators
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}

func (n *NotificationService) NotifyQuotaReset(ctx context.Context, action, subjectID, actorID string) error {
	logger.Info("NOTIFICATION: Rate limit window reset",
		zap.String("action", action),
		zap.String("subjectID", subjectID),
		zap.String("actorID", actorID))
	return nil
}
