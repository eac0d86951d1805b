// util/validation_util.go

package util

import (
	"fmt"

	"github.com/apipatb/earning-sub014/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

// ValidateGrant rejects malformed grants eagerly, before they can reach the
// check path. Non-positive quota values are configuration errors here, never
// at check time.
func (v *ValidationUtil) ValidateGrant(grant model.PermissionGrant) error {
	if grant.SubjectID == "" {
		return fmt.Errorf("grant subject ID cannot be empty")
	}
	if grant.Resource == "" {
		return fmt.Errorf("grant resource cannot be empty")
	}
	if grant.Action == "" {
		return fmt.Errorf("grant action cannot be empty")
	}
	if !grant.Scope.Valid() {
		return fmt.Errorf("grant scope must be one of OWN, TEAM, ALL")
	}
	if (grant.RateLimitMax == nil) != (grant.RateLimitWindow == nil) {
		return fmt.Errorf("rate limit requires both max actions and window minutes")
	}
	if grant.RateLimitMax != nil {
		if *grant.RateLimitMax <= 0 {
			return fmt.Errorf("rate limit max actions must be positive")
		}
		if *grant.RateLimitWindow <= 0 {
			return fmt.Errorf("rate limit window minutes must be positive")
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateTicket(ticket model.Ticket) error {
	if ticket.Title == "" {
		return fmt.Errorf("ticket title cannot be empty")
	}
	if ticket.OwnerID == "" {
		return fmt.Errorf("ticket owner ID cannot be empty")
	}
	switch ticket.Status {
	case "", "open", "pending", "closed":
	default:
		return fmt.Errorf("ticket status must be one of open, pending, closed")
	}
	return nil
}
