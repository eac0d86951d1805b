// test/mock/services.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/apipatb/earning-sub014/model"
)

// MockPermissionService is a mock implementation of service.IPermissionService
type MockPermissionService struct {
	mock.Mock
}

func (m *MockPermissionService) CheckPermission(ctx context.Context, subjectID, resource, action string, reqCtx model.RequestContext) (*model.AuthorizationDecision, error) {
	args := m.Called(ctx, subjectID, resource, action, reqCtx)
	decision, _ := args.Get(0).(*model.AuthorizationDecision)
	return decision, args.Error(1)
}

func (m *MockPermissionService) Grant(ctx context.Context, grant model.PermissionGrant, granterID string) (*model.PermissionGrant, error) {
	args := m.Called(ctx, grant, granterID)
	created, _ := args.Get(0).(*model.PermissionGrant)
	return created, args.Error(1)
}

func (m *MockPermissionService) Revoke(ctx context.Context, subjectID, resource, action, revokerID string) error {
	args := m.Called(ctx, subjectID, resource, action, revokerID)
	return args.Error(0)
}

func (m *MockPermissionService) GetGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error) {
	args := m.Called(ctx, subjectID, resource, action)
	grant, _ := args.Get(0).(*model.PermissionGrant)
	return grant, args.Error(1)
}

func (m *MockPermissionService) ListGrants(ctx context.Context, subjectID string, limit, offset int) ([]*model.PermissionGrant, error) {
	args := m.Called(ctx, subjectID, limit, offset)
	grants, _ := args.Get(0).([]*model.PermissionGrant)
	return grants, args.Error(1)
}

func (m *MockPermissionService) ResetRateLimit(ctx context.Context, action, subjectID, actorID string) error {
	args := m.Called(ctx, action, subjectID, actorID)
	return args.Error(0)
}

// MockRateLimitService is a mock implementation of service.IRateLimitService
type MockRateLimitService struct {
	mock.Mock
}

func (m *MockRateLimitService) CheckRateLimit(ctx context.Context, action, subjectID string, maxActions, windowMinutes int) (*model.RateLimitStatus, error) {
	args := m.Called(ctx, action, subjectID, maxActions, windowMinutes)
	status, _ := args.Get(0).(*model.RateLimitStatus)
	return status, args.Error(1)
}

func (m *MockRateLimitService) IncrementRateLimit(ctx context.Context, action, subjectID string, windowMinutes int) (int64, error) {
	args := m.Called(ctx, action, subjectID, windowMinutes)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRateLimitService) ResetRateLimit(ctx context.Context, action, subjectID string, windowMinutes int) error {
	args := m.Called(ctx, action, subjectID, windowMinutes)
	return args.Error(0)
}

func (m *MockRateLimitService) GetRateLimitStatus(ctx context.Context, action, subjectID string, maxActions, windowMinutes int) (*model.RateLimitStatus, error) {
	args := m.Called(ctx, action, subjectID, maxActions, windowMinutes)
	status, _ := args.Get(0).(*model.RateLimitStatus)
	return status, args.Error(1)
}
