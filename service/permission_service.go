// service/permission_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/apipatb/earning-sub014/audit"
	"github.com/apipatb/earning-sub014/dao"
	platform_errors "github.com/apipatb/earning-sub014/errors"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
	"github.com/apipatb/earning-sub014/util"
)

// IPermissionService defines the interface for authorization operations
type IPermissionService interface {
	CheckPermission(ctx context.Context, subjectID, resource, action string, reqCtx model.RequestContext) (*model.AuthorizationDecision, error)
	Grant(ctx context.Context, grant model.PermissionGrant, granterID string) (*model.PermissionGrant, error)
	Revoke(ctx context.Context, subjectID, resource, action, revokerID string) error
	GetGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error)
	ListGrants(ctx context.Context, subjectID string, limit, offset int) ([]*model.PermissionGrant, error)
	ResetRateLimit(ctx context.Context, action, subjectID, actorID string) error
}

// PermissionService is the authorization decision engine. Each call is a
// stateless evaluation over the current grant and counter-store contents;
// deny outcomes are normal return values, only infrastructure faults surface
// as errors.
type PermissionService struct {
	grantDAO        *dao.GrantDAO
	rateLimitSvc    IRateLimitService
	validationUtil  *util.ValidationUtil
	cacheService    util.ICacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
	auditService    audit.Service
}

var _ IPermissionService = &PermissionService{}

// NewPermissionService creates a new instance of PermissionService
func NewPermissionService(
	grantDAO *dao.GrantDAO,
	rateLimitSvc IRateLimitService,
	validationUtil *util.ValidationUtil,
	cacheService util.ICacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
	auditService audit.Service,
) *PermissionService {
	service := &PermissionService{
		grantDAO:        grantDAO,
		rateLimitSvc:    rateLimitSvc,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
		auditService:    auditService,
	}

	// Set up event subscriptions
	eventBus.Subscribe(util.EventGrantCreated, service.handleGrantCreated)
	eventBus.Subscribe(util.EventGrantRevoked, service.handleGrantRevoked)

	return service
}

func (s *PermissionService) handleGrantCreated(ctx context.Context, event util.Event) error {
	grant := event.Payload.(model.PermissionGrant)
	logger.Info("Grant created event received",
		zap.String("subjectID", grant.SubjectID),
		zap.String("resource", grant.Resource),
		zap.String("action", grant.Action))

	if err := s.notificationSvc.NotifyGrantChange(ctx, "created", grant); err != nil {
		logger.Warn("Failed to send grant creation notification", zap.Error(err), zap.String("grantID", grant.ID))
	}

	return nil
}

func (s *PermissionService) handleGrantRevoked(ctx context.Context, event util.Event) error {
	grant := event.Payload.(model.PermissionGrant)
	logger.Info("Grant revoked event received",
		zap.String("subjectID", grant.SubjectID),
		zap.String("resource", grant.Resource),
		zap.String("action", grant.Action))

	// Invalidate again in case a concurrent check re-populated the cache
	// between the revoke and the first invalidation.
	if err := s.cacheService.DeleteGrant(ctx, grant.SubjectID, grant.Resource, grant.Action); err != nil {
		logger.Warn("Failed to invalidate grant cache", zap.Error(err), zap.String("subjectID", grant.SubjectID))
	}

	if err := s.notificationSvc.NotifyGrantChange(ctx, "revoked", grant); err != nil {
		logger.Warn("Failed to send grant revocation notification", zap.Error(err), zap.String("subjectID", grant.SubjectID))
	}

	return nil
}

// CheckPermission produces a single grant/deny decision: grant lookup, then
// scope, then the optional quota. Consuming quota is the caller's second step,
// taken only after the protected action actually proceeds.
func (s *PermissionService) CheckPermission(ctx context.Context, subjectID, resource, action string, reqCtx model.RequestContext) (*model.AuthorizationDecision, error) {
	grant, err := s.lookupGrant(ctx, subjectID, resource, action)
	if err != nil {
		if errors.Is(err, platform_errors.ErrGrantNotFound) {
			decision := &model.AuthorizationDecision{Granted: false, Reason: model.ReasonNoGrant}
			s.auditDecision(subjectID, resource, action, decision)
			return decision, nil
		}
		return nil, err
	}

	cond := grant.Condition()
	if !EvaluateScope(cond.Scope, reqCtx) {
		decision := &model.AuthorizationDecision{Granted: false, Reason: model.ReasonScopeMismatch}
		s.auditDecision(subjectID, resource, action, decision)
		return decision, nil
	}

	decision := &model.AuthorizationDecision{Granted: true, Scope: cond.Scope}
	if cond.RateLimit != nil {
		status, err := s.rateLimitSvc.CheckRateLimit(ctx, action, subjectID, cond.RateLimit.MaxActions, cond.RateLimit.WindowMinutes)
		if err != nil {
			return nil, err
		}
		decision.RateLimit = status
		if !status.Allowed {
			decision.Granted = false
			decision.Scope = ""
			decision.Reason = model.ReasonRateLimitExceeded
		}
	}

	s.auditDecision(subjectID, resource, action, decision)
	return decision, nil
}

// Grant validates and stores an authorization grant. Non-positive quota values
// are rejected here so they can never reach the check path.
func (s *PermissionService) Grant(ctx context.Context, grant model.PermissionGrant, granterID string) (*model.PermissionGrant, error) {
	if grant.RateLimitMax != nil && grant.RateLimitWindow != nil {
		if *grant.RateLimitMax <= 0 || *grant.RateLimitWindow <= 0 {
			return nil, platform_errors.ErrInvalidRateLimit
		}
	}
	if err := s.validationUtil.ValidateGrant(grant); err != nil {
		return nil, fmt.Errorf("%w: %v", platform_errors.ErrInvalidGrantData, err)
	}

	grant.GrantedBy = granterID
	created, err := s.grantDAO.UpsertGrant(ctx, grant)
	if err != nil {
		logger.Error("Error upserting grant", zap.Error(err), zap.String("granterID", granterID))
		return nil, err
	}

	// Update cache
	if err := s.cacheService.SetGrant(ctx, *created); err != nil {
		logger.Warn("Failed to cache grant", zap.Error(err), zap.String("grantID", created.ID))
	}

	// Publish event for asynchronous processing
	s.eventBus.Publish(ctx, util.EventGrantCreated, *created)

	logger.Info("Grant created successfully",
		zap.String("grantID", created.ID),
		zap.String("granterID", granterID))
	return created, nil
}

// Revoke removes a grant and invalidates its cache entry.
func (s *PermissionService) Revoke(ctx context.Context, subjectID, resource, action, revokerID string) error {
	if err := s.grantDAO.RevokeGrant(ctx, subjectID, resource, action, revokerID); err != nil {
		if errors.Is(err, platform_errors.ErrGrantNotFound) {
			return platform_errors.ErrGrantNotFound
		}
		logger.Error("Error revoking grant",
			zap.Error(err),
			zap.String("subjectID", subjectID),
			zap.String("revokerID", revokerID))
		return err
	}

	// Remove from cache
	if err := s.cacheService.DeleteGrant(ctx, subjectID, resource, action); err != nil {
		logger.Warn("Failed to delete grant from cache", zap.Error(err), zap.String("subjectID", subjectID))
	}

	// Publish event for asynchronous processing
	s.eventBus.Publish(ctx, util.EventGrantRevoked, model.PermissionGrant{
		SubjectID: subjectID,
		Resource:  resource,
		Action:    action,
	})

	logger.Info("Grant revoked successfully",
		zap.String("subjectID", subjectID),
		zap.String("resource", resource),
		zap.String("action", action),
		zap.String("revokerID", revokerID))
	return nil
}

// GetGrant retrieves a grant by its key
func (s *PermissionService) GetGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error) {
	return s.lookupGrant(ctx, subjectID, resource, action)
}

// ListGrants retrieves all grants for a subject, with pagination
func (s *PermissionService) ListGrants(ctx context.Context, subjectID string, limit, offset int) ([]*model.PermissionGrant, error) {
	grants, err := s.grantDAO.ListGrants(ctx, subjectID, limit, offset)
	if err != nil {
		logger.Error("Error listing grants", zap.Error(err), zap.String("subjectID", subjectID))
		return nil, err
	}
	return grants, nil
}

// ResetRateLimit is the administrative override: it destroys the subject's
// live window for an action and records who did it.
func (s *PermissionService) ResetRateLimit(ctx context.Context, action, subjectID, actorID string) error {
	if err := s.rateLimitSvc.ResetRateLimit(ctx, action, subjectID, 0); err != nil {
		return err
	}

	if err := s.auditService.LogEvent(ctx, audit.AuditLog{
		Event:     audit.EventQuotaReset,
		ActorID:   actorID,
		SubjectID: subjectID,
		Action:    action,
	}); err != nil {
		logger.Warn("Failed to write quota reset audit entry", zap.Error(err), zap.String("subjectID", subjectID))
	}

	if err := s.notificationSvc.NotifyQuotaReset(ctx, action, subjectID, actorID); err != nil {
		logger.Warn("Failed to send quota reset notification", zap.Error(err), zap.String("subjectID", subjectID))
	}
	if err := s.notificationSvc.NotifyAdmins(ctx,
		fmt.Sprintf("rate limit window for action %q of subject %q reset by %s", action, subjectID, actorID)); err != nil {
		logger.Warn("Failed to notify admins of quota reset", zap.Error(err), zap.String("subjectID", subjectID))
	}

	return nil
}

// lookupGrant consults the advisory cache before the grant store. Cache
// failures degrade to a store read, never to a decision.
func (s *PermissionService) lookupGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error) {
	cached, err := s.cacheService.GetGrant(ctx, subjectID, resource, action)
	if err == nil && cached != nil {
		return cached, nil
	}
	if err != nil {
		logger.Warn("Grant cache read failed, falling back to store", zap.Error(err), zap.String("subjectID", subjectID))
	}

	grant, err := s.grantDAO.FindGrant(ctx, subjectID, resource, action)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetGrant(ctx, *grant); err != nil {
		logger.Warn("Failed to cache grant", zap.Error(err), zap.String("grantID", grant.ID))
	}
	return grant, nil
}

// auditDecision records the decision best-effort, off the request path.
func (s *PermissionService) auditDecision(subjectID, resource, action string, decision *model.AuthorizationDecision) {
	entry := audit.AuditLog{
		Event:     audit.EventAccessChecked,
		SubjectID: subjectID,
		Resource:  resource,
		Action:    action,
		Granted:   decision.Granted,
		Reason:    string(decision.Reason),
	}
	go func() {
		if err := s.auditService.LogEvent(context.Background(), entry); err != nil {
			logger.Warn("Failed to write decision audit entry",
				zap.Error(err),
				zap.String("subjectID", subjectID),
				zap.String("resource", resource))
		}
	}()
}
