// dao/grant_dao.go
package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/apipatb/earning-sub014/audit"
	platform_errors "github.com/apipatb/earning-sub014/errors"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
)

const defaultStoreTimeout = 2 * time.Second

// GrantDAO persists permission grants, keyed by (subject, resource, action).
// No scope or rate-limit logic lives here. Every call carries a bounded
// timeout, and any infrastructure fault is surfaced wrapping
// ErrStoreUnavailable so callers can apply the store-failure policy.
type GrantDAO struct {
	DB           *gorm.DB
	AuditService audit.Service
	timeout      time.Duration
}

func NewGrantDAO(db *gorm.DB, auditService audit.Service, timeout time.Duration) *GrantDAO {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &GrantDAO{DB: db, AuditService: auditService, timeout: timeout}
}

func (dao *GrantDAO) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, dao.timeout)
}

// UpsertGrant writes a grant. A later grant for the same key fully replaces
// the stored condition; nothing is merged.
func (dao *GrantDAO) UpsertGrant(ctx context.Context, grant model.PermissionGrant) (*model.PermissionGrant, error) {
	start := time.Now()
	logger.Info("Upserting grant",
		zap.String("subjectID", grant.SubjectID),
		zap.String("resource", grant.Resource),
		zap.String("action", grant.Action))

	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}

	tctx, cancel := dao.withTimeout(ctx)
	defer cancel()

	err := dao.DB.WithContext(tctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}, {Name: "resource"}, {Name: "action"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"scope", "rate_limit_max", "rate_limit_window", "granted_by", "updated_at",
		}),
	}).Create(&grant).Error

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to upsert grant",
			zap.Error(err),
			zap.String("subjectID", grant.SubjectID),
			zap.String("resource", grant.Resource),
			zap.String("action", grant.Action),
			zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: upsert grant: %v", platform_errors.ErrStoreUnavailable, err)
	}

	// On conflict the incoming struct keeps its fresh ID while the stored row
	// keeps the original one; re-read so callers and the cache see the row as
	// persisted.
	stored, err := dao.FindGrant(ctx, grant.SubjectID, grant.Resource, grant.Action)
	if err != nil {
		return nil, err
	}

	details, _ := json.Marshal(stored.Condition())
	if err := dao.AuditService.LogEvent(ctx, audit.AuditLog{
		Event:         audit.EventGrantCreated,
		ActorID:       stored.GrantedBy,
		SubjectID:     stored.SubjectID,
		Resource:      stored.Resource,
		Action:        stored.Action,
		Granted:       true,
		ChangeDetails: details,
	}); err != nil {
		logger.Warn("Failed to write grant audit entry", zap.Error(err), zap.String("grantID", stored.ID))
	}

	logger.Info("Grant upserted successfully",
		zap.String("grantID", stored.ID),
		zap.Duration("duration", duration))
	return stored, nil
}

// FindGrant returns the grant for (subjectID, resource, action), or
// ErrGrantNotFound when absent. An unreachable or timed-out store is
// ErrStoreUnavailable, never a not-found.
func (dao *GrantDAO) FindGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error) {
	tctx, cancel := dao.withTimeout(ctx)
	defer cancel()

	var grant model.PermissionGrant
	err := dao.DB.WithContext(tctx).
		Where("subject_id = ? AND resource = ? AND action = ?", subjectID, resource, action).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platform_errors.ErrGrantNotFound
		}
		logger.Error("Failed to find grant",
			zap.Error(err),
			zap.String("subjectID", subjectID),
			zap.String("resource", resource),
			zap.String("action", action))
		return nil, fmt.Errorf("%w: find grant: %v", platform_errors.ErrStoreUnavailable, err)
	}
	return &grant, nil
}

// RevokeGrant removes the grant for (subjectID, resource, action).
func (dao *GrantDAO) RevokeGrant(ctx context.Context, subjectID, resource, action, revokerID string) error {
	tctx, cancel := dao.withTimeout(ctx)
	defer cancel()

	result := dao.DB.WithContext(tctx).
		Where("subject_id = ? AND resource = ? AND action = ?", subjectID, resource, action).
		Delete(&model.PermissionGrant{})
	if result.Error != nil {
		logger.Error("Failed to revoke grant",
			zap.Error(result.Error),
			zap.String("subjectID", subjectID),
			zap.String("resource", resource),
			zap.String("action", action))
		return fmt.Errorf("%w: revoke grant: %v", platform_errors.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return platform_errors.ErrGrantNotFound
	}

	if err := dao.AuditService.LogEvent(ctx, audit.AuditLog{
		Event:     audit.EventGrantRevoked,
		ActorID:   revokerID,
		SubjectID: subjectID,
		Resource:  resource,
		Action:    action,
	}); err != nil {
		logger.Warn("Failed to write revocation audit entry",
			zap.Error(err),
			zap.String("subjectID", subjectID))
	}

	logger.Info("Grant revoked successfully",
		zap.String("subjectID", subjectID),
		zap.String("resource", resource),
		zap.String("action", action),
		zap.String("revokerID", revokerID))
	return nil
}

// ListGrants returns all grants for a subject, paginated.
func (dao *GrantDAO) ListGrants(ctx context.Context, subjectID string, limit, offset int) ([]*model.PermissionGrant, error) {
	tctx, cancel := dao.withTimeout(ctx)
	defer cancel()

	var grants []*model.PermissionGrant
	err := dao.DB.WithContext(tctx).
		Where("subject_id = ?", subjectID).
		Order("resource, action").
		Limit(limit).
		Offset(offset).
		Find(&grants).Error
	if err != nil {
		logger.Error("Failed to list grants", zap.Error(err), zap.String("subjectID", subjectID))
		return nil, fmt.Errorf("%w: list grants: %v", platform_errors.ErrStoreUnavailable, err)
	}
	return grants, nil
}
