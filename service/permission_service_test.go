// service/permission_service_test.go
package service_test

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/apipatb/earning-sub014/service"
	"github.com/apipatb/earning-sub014/test/mock"
	"github.com/apipatb/earning-sub014/util"
)

type permissionFixture struct {
	svc   service.IPermissionService
	gdb   *gorm.DB
	store *mock.MemoryCounterStore
	cache *mock.MemoryCacheService
	audit *mock.MockAuditService
}

func newPermissionFixture(t *testing.T) *permissionFixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.PermissionGrant{}))

	auditService := &mock.MockAuditService{}
	auditService.On("LogEvent", testify_mock.Anything, testify_mock.Anything).Return(nil)

	store := mock.NewMemoryCounterStore()
	cache := mock.NewMemoryCacheService()

	svc := service.NewPermissionService(
		dao.NewGrantDAO(gdb, auditService, 2*time.Second),
		service.NewRateLimitService(store),
		util.NewValidationUtil(),
		cache,
		util.NewNotificationService(),
		util.NewEventBus(),
		auditService,
	)

	return &permissionFixture{svc: svc, gdb: gdb, store: store, cache: cache, audit: auditService}
}

// breakGrantStore closes the fixture's database handle so every grant-store
// query fails with an infrastructure error.
func (f *permissionFixture) breakGrantStore(t *testing.T) {
	t.Helper()
	sqlDB, err := f.gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func metered(scope model.Scope, maxActions, windowMinutes int) model.PermissionGrant {
	grant := model.PermissionGrant{Scope: scope}
	grant.RateLimitMax = &maxActions
	grant.RateLimitWindow = &windowMinutes
	return grant
}

func TestPermissionService_CheckPermission(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ctx := context.Background()
	ownCtx := func(subjectID string) model.RequestContext {
		return model.RequestContext{SubjectID: subjectID, TargetOwnerID: subjectID}
	}

	t.Run("DeniesWithoutGrant", func(t *testing.T) {
		f := newPermissionFixture(t)

		decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "create", ownCtx("user-1"))
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, model.ReasonNoGrant, decision.Reason)

		// A missing grant never reaches the counter store.
		assert.Equal(t, 0, f.store.GetCalls)
		assert.Equal(t, 0, f.store.IncrementCalls)
	})

	t.Run("GrantsWithinQuota", func(t *testing.T) {
		f := newPermissionFixture(t)
		rateLimitSvc := service.NewRateLimitService(f.store)

		grant := metered(model.ScopeOwn, 10, 60)
		grant.SubjectID = "user-1"
		grant.Resource = "ticket"
		grant.Action = "create"
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "create", ownCtx("user-1"))
			require.NoError(t, err)
			require.True(t, decision.Granted, "check %d should pass", i+1)
			assert.Equal(t, model.ScopeOwn, decision.Scope)
			require.NotNil(t, decision.RateLimit)
			assert.Equal(t, int64(i), decision.RateLimit.Current)

			_, err = rateLimitSvc.IncrementRateLimit(ctx, "create", "user-1", 60)
			require.NoError(t, err)
		}
	})

	t.Run("DeniesWhenQuotaExhausted", func(t *testing.T) {
		f := newPermissionFixture(t)
		rateLimitSvc := service.NewRateLimitService(f.store)

		grant := metered(model.ScopeOwn, 10, 60)
		grant.SubjectID = "user-1"
		grant.Resource = "ticket"
		grant.Action = "create"
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "create", ownCtx("user-1"))
			require.NoError(t, err)
			require.True(t, decision.Granted)
			_, err = rateLimitSvc.IncrementRateLimit(ctx, "create", "user-1", 60)
			require.NoError(t, err)
		}

		decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "create", ownCtx("user-1"))
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, model.ReasonRateLimitExceeded, decision.Reason)
		require.NotNil(t, decision.RateLimit)
		assert.Equal(t, int64(10), decision.RateLimit.Current)
		assert.Equal(t, int64(0), decision.RateLimit.Remaining)
	})

	t.Run("ResetRestoresAccess", func(t *testing.T) {
		f := newPermissionFixture(t)
		rateLimitSvc := service.NewRateLimitService(f.store)

		grant := metered(model.ScopeAll, 2, 30)
		grant.SubjectID = "user-1"
		grant.Resource = "report"
		grant.Action = "generate"
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, err = rateLimitSvc.IncrementRateLimit(ctx, "generate", "user-1", 30)
			require.NoError(t, err)
		}
		decision, err := f.svc.CheckPermission(ctx, "user-1", "report", "generate", model.RequestContext{SubjectID: "user-1"})
		require.NoError(t, err)
		require.False(t, decision.Granted)

		require.NoError(t, f.svc.ResetRateLimit(ctx, "generate", "user-1", "admin-1"))

		decision, err = f.svc.CheckPermission(ctx, "user-1", "report", "generate", model.RequestContext{SubjectID: "user-1"})
		require.NoError(t, err)
		assert.True(t, decision.Granted)
		assert.Equal(t, int64(0), decision.RateLimit.Current)
	})

	t.Run("ActionsHaveIndependentWindows", func(t *testing.T) {
		f := newPermissionFixture(t)
		rateLimitSvc := service.NewRateLimitService(f.store)

		generate := metered(model.ScopeAll, 1, 60)
		generate.SubjectID = "user-1"
		generate.Resource = "report"
		generate.Action = "generate"
		_, err := f.svc.Grant(ctx, generate, "admin-1")
		require.NoError(t, err)

		view := metered(model.ScopeAll, 5, 60)
		view.SubjectID = "user-1"
		view.Resource = "report"
		view.Action = "view"
		_, err = f.svc.Grant(ctx, view, "admin-1")
		require.NoError(t, err)

		_, err = rateLimitSvc.IncrementRateLimit(ctx, "generate", "user-1", 60)
		require.NoError(t, err)

		decision, err := f.svc.CheckPermission(ctx, "user-1", "report", "generate", model.RequestContext{SubjectID: "user-1"})
		require.NoError(t, err)
		assert.False(t, decision.Granted)

		decision, err = f.svc.CheckPermission(ctx, "user-1", "report", "view", model.RequestContext{SubjectID: "user-1"})
		require.NoError(t, err)
		assert.True(t, decision.Granted)
		assert.Equal(t, int64(0), decision.RateLimit.Current)
	})

	t.Run("DeniesOnScopeMismatch", func(t *testing.T) {
		f := newPermissionFixture(t)

		grant := metered(model.ScopeOwn, 10, 60)
		grant.SubjectID = "user-1"
		grant.Resource = "ticket"
		grant.Action = "update"
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		require.NoError(t, err)

		decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "update",
			model.RequestContext{SubjectID: "user-1", TargetOwnerID: "user-2"})
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, model.ReasonScopeMismatch, decision.Reason)

		// Scope rejection happens before the quota is consulted.
		assert.Equal(t, 0, f.store.GetCalls)
	})

	t.Run("UnmeteredGrantSkipsCounterStore", func(t *testing.T) {
		f := newPermissionFixture(t)

		grant := model.PermissionGrant{
			SubjectID: "user-1",
			Resource:  "ticket",
			Action:    "read",
			Scope:     model.ScopeTeam,
		}
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		require.NoError(t, err)

		decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "read",
			model.RequestContext{
				SubjectID:      "user-1",
				TargetOwnerID:  "user-2",
				SubjectTeamIDs: []string{"team-a"},
				TargetTeamIDs:  []string{"team-a"},
			})
		require.NoError(t, err)
		assert.True(t, decision.Granted)
		assert.Nil(t, decision.RateLimit)
		assert.Equal(t, 0, f.store.GetCalls)
	})

	t.Run("SurfacesStoreFailure", func(t *testing.T) {
		f := newPermissionFixture(t)

		grant := metered(model.ScopeAll, 5, 60)
		grant.SubjectID = "user-1"
		grant.Resource = "report"
		grant.Action = "generate"
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		require.NoError(t, err)

		f.store.Err = fmt.Errorf("%w: connection refused", platform_errors.ErrStoreUnavailable)

		decision, err := f.svc.CheckPermission(ctx, "user-1", "report", "generate", model.RequestContext{SubjectID: "user-1"})
		assert.Nil(t, decision)
		assert.True(t, errors.Is(err, platform_errors.ErrStoreUnavailable))
	})

	t.Run("GrantStoreOutageSurfacesStoreUnavailable", func(t *testing.T) {
		f := newPermissionFixture(t)
		f.breakGrantStore(t)

		decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "create", ownCtx("user-1"))
		assert.Nil(t, decision)
		assert.True(t, errors.Is(err, platform_errors.ErrStoreUnavailable),
			"grant store faults must carry the store-failure sentinel, got %v", err)
	})

	t.Run("CacheFailureFallsBackToStore", func(t *testing.T) {
		f := newPermissionFixture(t)

		grant := model.PermissionGrant{
			SubjectID: "user-1",
			Resource:  "ticket",
			Action:    "read",
			Scope:     model.ScopeAll,
		}
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		require.NoError(t, err)

		f.cache.Err = errors.New("cache down")

		decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "read", model.RequestContext{SubjectID: "user-1"})
		require.NoError(t, err)
		assert.True(t, decision.Granted)
	})
}

func TestPermissionService_GrantLifecycle(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ctx := context.Background()

	t.Run("RegrantReplacesCondition", func(t *testing.T) {
		f := newPermissionFixture(t)

		first := metered(model.ScopeOwn, 10, 60)
		first.SubjectID = "user-1"
		first.Resource = "ticket"
		first.Action = "create"
		created, err := f.svc.Grant(ctx, first, "admin-1")
		require.NoError(t, err)

		second := metered(model.ScopeTeam, 5, 30)
		second.SubjectID = "user-1"
		second.Resource = "ticket"
		second.Action = "create"
		_, err = f.svc.Grant(ctx, second, "admin-2")
		require.NoError(t, err)

		stored, err := f.svc.GetGrant(ctx, "user-1", "ticket", "create")
		require.NoError(t, err)
		assert.Equal(t, model.ScopeTeam, stored.Scope)
		require.NotNil(t, stored.RateLimitMax)
		assert.Equal(t, 5, *stored.RateLimitMax)
		assert.Equal(t, 30, *stored.RateLimitWindow)
		assert.Equal(t, "admin-2", stored.GrantedBy)
		assert.Equal(t, created.ID, stored.ID, "re-grant replaces the condition, not the row")
	})

	t.Run("RejectsNonPositiveQuota", func(t *testing.T) {
		f := newPermissionFixture(t)

		zero := metered(model.ScopeOwn, 0, 60)
		zero.SubjectID = "user-1"
		zero.Resource = "ticket"
		zero.Action = "create"
		_, err := f.svc.Grant(ctx, zero, "admin-1")
		assert.True(t, errors.Is(err, platform_errors.ErrInvalidRateLimit))

		negative := metered(model.ScopeOwn, 10, -1)
		negative.SubjectID = "user-1"
		negative.Resource = "ticket"
		negative.Action = "create"
		_, err = f.svc.Grant(ctx, negative, "admin-1")
		assert.True(t, errors.Is(err, platform_errors.ErrInvalidRateLimit))
	})

	t.Run("RejectsUnknownScope", func(t *testing.T) {
		f := newPermissionFixture(t)

		grant := model.PermissionGrant{
			SubjectID: "user-1",
			Resource:  "ticket",
			Action:    "create",
			Scope:     model.Scope("GLOBAL"),
		}
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		assert.True(t, errors.Is(err, platform_errors.ErrInvalidGrantData))
	})

	t.Run("RevokeRemovesGrantAndCacheEntry", func(t *testing.T) {
		f := newPermissionFixture(t)

		grant := model.PermissionGrant{
			SubjectID: "user-1",
			Resource:  "ticket",
			Action:    "create",
			Scope:     model.ScopeAll,
		}
		_, err := f.svc.Grant(ctx, grant, "admin-1")
		require.NoError(t, err)
		require.True(t, f.cache.Contains("user-1", "ticket", "create"))

		require.NoError(t, f.svc.Revoke(ctx, "user-1", "ticket", "create", "admin-1"))
		assert.False(t, f.cache.Contains("user-1", "ticket", "create"))

		decision, err := f.svc.CheckPermission(ctx, "user-1", "ticket", "create", model.RequestContext{SubjectID: "user-1"})
		require.NoError(t, err)
		assert.False(t, decision.Granted)
		assert.Equal(t, model.ReasonNoGrant, decision.Reason)
	})

	t.Run("RevokeMissingGrantReturnsNotFound", func(t *testing.T) {
		f := newPermissionFixture(t)
		err := f.svc.Revoke(ctx, "user-1", "ticket", "create", "admin-1")
		assert.True(t, errors.Is(err, platform_errors.ErrGrantNotFound))
	})

	t.Run("ListGrantsPaginates", func(t *testing.T) {
		f := newPermissionFixture(t)

		for _, action := range []string{"create", "read", "update"} {
			grant := model.PermissionGrant{
				SubjectID: "user-1",
				Resource:  "ticket",
				Action:    action,
				Scope:     model.ScopeAll,
			}
			_, err := f.svc.Grant(ctx, grant, "admin-1")
			require.NoError(t, err)
		}

		grants, err := f.svc.ListGrants(ctx, "user-1", 2, 0)
		require.NoError(t, err)
		assert.Len(t, grants, 2)

		grants, err = f.svc.ListGrants(ctx, "user-1", 2, 2)
		require.NoError(t, err)
		assert.Len(t, grants, 1)
	})
}
