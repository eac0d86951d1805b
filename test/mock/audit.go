// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/apipatb/earning-sub014/audit"
)

// MockAuditService is a mock implementation of audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogEvent(ctx context.Context, log audit.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditService) QueryLogs(ctx context.Context, from, to time.Time, subjectID, resource string) ([]audit.AuditLog, error) {
	args := m.Called(ctx, from, to, subjectID, resource)
	return args.Get(0).([]audit.AuditLog), args.Error(1)
}
