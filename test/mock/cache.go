// test/mock/cache.go
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/apipatb/earning-sub014/model"
)

// MemoryCacheService is an in-memory grant cache for tests. A nil entry is a
// miss, mirroring the advisory Redis cache. Setting Err makes every operation
// fail with it, which the callers must treat as a miss.
type MemoryCacheService struct {
	mu     sync.Mutex
	grants map[string]model.PermissionGrant

	Err error
}

func NewMemoryCacheService() *MemoryCacheService {
	return &MemoryCacheService{grants: make(map[string]model.PermissionGrant)}
}

func cacheKey(subjectID, resource, action string) string {
	return fmt.Sprintf("%s:%s:%s", subjectID, resource, action)
}

func (c *MemoryCacheService) GetGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	grant, ok := c.grants[cacheKey(subjectID, resource, action)]
	if !ok {
		return nil, nil
	}
	copied := grant
	return &copied, nil
}

func (c *MemoryCacheService) SetGrant(ctx context.Context, grant model.PermissionGrant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.grants[cacheKey(grant.SubjectID, grant.Resource, grant.Action)] = grant
	return nil
}

func (c *MemoryCacheService) DeleteGrant(ctx context.Context, subjectID, resource, action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.grants, cacheKey(subjectID, resource, action))
	return nil
}

// Contains reports whether the cache holds an entry for the grant key.
func (c *MemoryCacheService) Contains(subjectID, resource, action string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.grants[cacheKey(subjectID, resource, action)]
	return ok
}
