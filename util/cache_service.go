// util/cache_service.go

package util

import (
	"context"

	"github.com/apipatb/earning-sub014/db"
	"github.com/apipatb/earning-sub014/model"
)

// ICacheService is the advisory grant cache contract: misses and cache errors
// fall through to the grant store, and writes are invalidated on every grant
// or revoke.
type ICacheService interface {
	GetGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error)
	SetGrant(ctx context.Context, grant model.PermissionGrant) error
	DeleteGrant(ctx context.Context, subjectID, resource, action string) error
}

// CacheService fronts the Redis grant cache.
type CacheService struct{}

var _ ICacheService = &CacheService{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error) {
	return db.GetCachedGrant(ctx, subjectID, resource, action)
}

func (c *CacheService) SetGrant(ctx context.Context, grant model.PermissionGrant) error {
	return db.CacheGrant(ctx, &grant)
}

func (c *CacheService) DeleteGrant(ctx context.Context, subjectID, resource, action string) error {
	return db.DeleteCachedGrant(ctx, subjectID, resource, action)
}
