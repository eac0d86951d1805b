// dao/grant_dao_test.go
package dao_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	testify_mock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/apipatb/earning-sub014/dao"
	platform_errors "github.com/apipatb/earning-sub014/errors"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
	"github.com/apipatb/earning-sub014/test/mock"
)

func newGrantDAO(t *testing.T) *dao.GrantDAO {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.PermissionGrant{}))

	auditService := &mock.MockAuditService{}
	auditService.On("LogEvent", testify_mock.Anything, testify_mock.Anything).Return(nil)

	return dao.NewGrantDAO(gdb, auditService, 2*time.Second)
}

// brokenGrantDAO returns a DAO whose underlying connection is already closed,
// so every query fails with an infrastructure error.
func brokenGrantDAO(t *testing.T) *dao.GrantDAO {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.PermissionGrant{}))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	auditService := &mock.MockAuditService{}
	auditService.On("LogEvent", testify_mock.Anything, testify_mock.Anything).Return(nil)

	return dao.NewGrantDAO(gdb, auditService, 2*time.Second)
}

func TestGrantDAO(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ctx := context.Background()

	t.Run("UpsertAssignsIDAndPersists", func(t *testing.T) {
		grantDAO := newGrantDAO(t)

		max, window := 10, 60
		created, err := grantDAO.UpsertGrant(ctx, model.PermissionGrant{
			SubjectID:       "user-1",
			Resource:        "ticket",
			Action:          "create",
			Scope:           model.ScopeOwn,
			RateLimitMax:    &max,
			RateLimitWindow: &window,
			GrantedBy:       "admin-1",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)

		found, err := grantDAO.FindGrant(ctx, "user-1", "ticket", "create")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, model.ScopeOwn, found.Scope)
		require.NotNil(t, found.RateLimitMax)
		assert.Equal(t, 10, *found.RateLimitMax)
		assert.Equal(t, 60, *found.RateLimitWindow)
	})

	t.Run("UpsertOnSameKeyReplacesCondition", func(t *testing.T) {
		grantDAO := newGrantDAO(t)

		max, window := 10, 60
		first, err := grantDAO.UpsertGrant(ctx, model.PermissionGrant{
			SubjectID:       "user-1",
			Resource:        "ticket",
			Action:          "create",
			Scope:           model.ScopeOwn,
			RateLimitMax:    &max,
			RateLimitWindow: &window,
			GrantedBy:       "admin-1",
		})
		require.NoError(t, err)

		second, err := grantDAO.UpsertGrant(ctx, model.PermissionGrant{
			SubjectID: "user-1",
			Resource:  "ticket",
			Action:    "create",
			Scope:     model.ScopeAll,
			GrantedBy: "admin-2",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID, "conflicting upsert must keep the original row")
		assert.Equal(t, model.ScopeAll, second.Scope)
		assert.Nil(t, second.RateLimitMax)
		assert.Equal(t, "admin-2", second.GrantedBy)

		var count int64
		require.NoError(t, grantDAO.DB.Model(&model.PermissionGrant{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("FindMissingGrantReturnsNotFound", func(t *testing.T) {
		grantDAO := newGrantDAO(t)
		_, err := grantDAO.FindGrant(ctx, "user-1", "ticket", "create")
		assert.True(t, errors.Is(err, platform_errors.ErrGrantNotFound))
	})

	t.Run("RevokeDeletesGrant", func(t *testing.T) {
		grantDAO := newGrantDAO(t)

		_, err := grantDAO.UpsertGrant(ctx, model.PermissionGrant{
			SubjectID: "user-1",
			Resource:  "ticket",
			Action:    "create",
			Scope:     model.ScopeAll,
		})
		require.NoError(t, err)

		require.NoError(t, grantDAO.RevokeGrant(ctx, "user-1", "ticket", "create", "admin-1"))

		_, err = grantDAO.FindGrant(ctx, "user-1", "ticket", "create")
		assert.True(t, errors.Is(err, platform_errors.ErrGrantNotFound))
	})

	t.Run("RevokeMissingGrantReturnsNotFound", func(t *testing.T) {
		grantDAO := newGrantDAO(t)
		err := grantDAO.RevokeGrant(ctx, "user-1", "ticket", "create", "admin-1")
		assert.True(t, errors.Is(err, platform_errors.ErrGrantNotFound))
	})

	t.Run("InfraFaultSurfacesAsStoreUnavailable", func(t *testing.T) {
		grantDAO := brokenGrantDAO(t)

		_, err := grantDAO.FindGrant(ctx, "user-1", "ticket", "create")
		assert.True(t, errors.Is(err, platform_errors.ErrStoreUnavailable))
		assert.False(t, errors.Is(err, platform_errors.ErrGrantNotFound))

		_, err = grantDAO.UpsertGrant(ctx, model.PermissionGrant{
			SubjectID: "user-1",
			Resource:  "ticket",
			Action:    "create",
			Scope:     model.ScopeAll,
		})
		assert.True(t, errors.Is(err, platform_errors.ErrStoreUnavailable))

		err = grantDAO.RevokeGrant(ctx, "user-1", "ticket", "create", "admin-1")
		assert.True(t, errors.Is(err, platform_errors.ErrStoreUnavailable))

		_, err = grantDAO.ListGrants(ctx, "user-1", 10, 0)
		assert.True(t, errors.Is(err, platform_errors.ErrStoreUnavailable))
	})

	t.Run("ListGrantsFiltersBySubjectAndPaginates", func(t *testing.T) {
		grantDAO := newGrantDAO(t)

		for _, g := range []struct{ subject, action string }{
			{"user-1", "create"},
			{"user-1", "read"},
			{"user-1", "update"},
			{"user-2", "create"},
		} {
			_, err := grantDAO.UpsertGrant(ctx, model.PermissionGrant{
				SubjectID: g.subject,
				Resource:  "ticket",
				Action:    g.action,
				Scope:     model.ScopeAll,
			})
			require.NoError(t, err)
		}

		grants, err := grantDAO.ListGrants(ctx, "user-1", 10, 0)
		require.NoError(t, err)
		assert.Len(t, grants, 3)

		grants, err = grantDAO.ListGrants(ctx, "user-1", 2, 2)
		require.NoError(t, err)
		assert.Len(t, grants, 1)
	})
}
