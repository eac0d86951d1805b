// service/rate_limit_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
)

// IRateLimitService defines the fixed-window quota operations
type IRateLimitService interface {
	CheckRateLimit(ctx context.Context, action, subjectID string, maxActions, windowMinutes int) (*model.RateLimitStatus, error)
	IncrementRateLimit(ctx context.Context, action, subjectID string, windowMinutes int) (int64, error)
	ResetRateLimit(ctx context.Context, action, subjectID string, windowMinutes int) error
	GetRateLimitStatus(ctx context.Context, action, subjectID string, maxActions, windowMinutes int) (*model.RateLimitStatus, error)
}

// RateLimitService tracks fixed-window quotas keyed by (action, subject). The
// window is rolling, anchored at the first increment: the expiry is armed once
// by whichever increment observes the count transition to 1 and is never
// refreshed afterwards.
type RateLimitService struct {
	store CounterStore
}

var _ IRateLimitService = &RateLimitService{}

func NewRateLimitService(store CounterStore) *RateLimitService {
	return &RateLimitService{store: store}
}

func windowKey(action, subjectID string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, subjectID)
}

// CheckRateLimit is a non-mutating read of the current window. An absent key
// counts as 0. Note that check followed by IncrementRateLimit is not atomic as
// a whole: concurrent requesters in flight between the two calls can push the
// window slightly past the limit, an accepted approximation of a hard quota.
func (s *RateLimitService) CheckRateLimit(ctx context.Context, action, subjectID string, maxActions, windowMinutes int) (*model.RateLimitStatus, error) {
	key := windowKey(action, subjectID)
	window := time.Duration(windowMinutes) * time.Minute

	current, found, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	// resetAt comes from the live expiry when the window is armed; before the
	// first increment it is only a projection.
	resetAt := time.Now().Add(window)
	if found {
		if ttl, armed, err := s.store.TTL(ctx, key); err != nil {
			return nil, err
		} else if armed {
			resetAt = time.Now().Add(ttl)
		}
	}

	remaining := int64(maxActions) - current
	if remaining < 0 {
		remaining = 0
	}

	status := &model.RateLimitStatus{
		Allowed:       current < int64(maxActions),
		Current:       current,
		Limit:         maxActions,
		Remaining:     remaining,
		ResetAt:       resetAt,
		WindowMinutes: windowMinutes,
	}

	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("current", current),
		zap.Int("limit", maxActions),
		zap.Bool("allowed", status.Allowed))
	return status, nil
}

// IncrementRateLimit consumes one action from the window. The increment that
// creates the key (count == 1) arms the expiry; SetExpiryIfAbsent is
// idempotent, so a concurrent first-caller racing on the same observation
// cannot extend a window that is already armed.
func (s *RateLimitService) IncrementRateLimit(ctx context.Context, action, subjectID string, windowMinutes int) (int64, error) {
	key := windowKey(action, subjectID)

	count, err := s.store.Increment(ctx, key)
	if err != nil {
		return 0, err
	}

	if count == 1 {
		window := time.Duration(windowMinutes) * time.Minute
		armed, err := s.store.SetExpiryIfAbsent(ctx, key, window)
		if err != nil {
			return count, err
		}
		logger.Debug("Rate limit window armed",
			zap.String("key", key),
			zap.Bool("armed", armed),
			zap.Int("windowMinutes", windowMinutes))
	}

	return count, nil
}

// ResetRateLimit destroys the live window. It takes no lock: a reset racing
// with concurrent increments is eventually consistent, not atomic.
func (s *RateLimitService) ResetRateLimit(ctx context.Context, action, subjectID string, windowMinutes int) error {
	key := windowKey(action, subjectID)
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	logger.Info("Rate limit window reset",
		zap.String("action", action),
		zap.String("subjectID", subjectID))
	return nil
}

// GetRateLimitStatus is CheckRateLimit exposed for monitoring; it has no side
// effects.
func (s *RateLimitService) GetRateLimitStatus(ctx context.Context, action, subjectID string, maxActions, windowMinutes int) (*model.RateLimitStatus, error) {
	return s.CheckRateLimit(ctx, action, subjectID, maxActions, windowMinutes)
}
