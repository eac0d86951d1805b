// model/decision.go
package model

import "time"

// DecisionReason is the closed set of deny reasons. Callers branch on the
// constant, never on message text.
type DecisionReason string

const (
	ReasonNoGrant           DecisionReason = "no_grant"
	ReasonScopeMismatch     DecisionReason = "scope_mismatch"
	ReasonRateLimitExceeded DecisionReason = "rate_limit_exceeded"
	ReasonStoreUnavailable  DecisionReason = "store_unavailable"
)

// RateLimitStatus is a point-in-time view of one fixed window.
type RateLimitStatus struct {
	Allowed       bool      `json:"allowed"`
	Current       int64     `json:"current"`
	Limit         int       `json:"limit"`
	Remaining     int64     `json:"remaining"`
	ResetAt       time.Time `json:"reset_at"`
	WindowMinutes int       `json:"window_minutes"`
}

// AuthorizationDecision is the ephemeral outcome of a permission check. It is
// returned by value and never persisted.
type AuthorizationDecision struct {
	Granted   bool             `json:"granted"`
	Reason    DecisionReason   `json:"reason,omitempty"`
	Scope     Scope            `json:"scope,omitempty"`
	RateLimit *RateLimitStatus `json:"rate_limit,omitempty"`
}
