// model/grant.go
package model

import "time"

// Scope governs which target records a grant covers.
type Scope string

const (
	ScopeOwn  Scope = "OWN"
	ScopeTeam Scope = "TEAM"
	ScopeAll  Scope = "ALL"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeOwn, ScopeTeam, ScopeAll:
		return true
	}
	return false
}

// RateLimitCondition caps how many times a granted action may be consumed
// inside a fixed window.
type RateLimitCondition struct {
	MaxActions    int `json:"max_actions"`
	WindowMinutes int `json:"window_minutes"`
}

// Condition is the tagged pair of data scope and optional quota attached to a
// grant. RateLimit == nil means the grant is unmetered.
type Condition struct {
	Scope     Scope               `json:"scope"`
	RateLimit *RateLimitCondition `json:"rate_limit,omitempty"`
}

// PermissionGrant links a subject to a permitted resource/action. Grants are
// immutable once written; re-granting the same (subject, resource, action)
// replaces the condition wholesale.
type PermissionGrant struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	SubjectID       string    `gorm:"uniqueIndex:idx_grant_key;size:100;not null" json:"subject_id"`
	Resource        string    `gorm:"uniqueIndex:idx_grant_key;size:100;not null" json:"resource"`
	Action          string    `gorm:"uniqueIndex:idx_grant_key;size:50;not null" json:"action"`
	Scope           Scope     `gorm:"size:10;not null" json:"scope"`
	RateLimitMax    *int      `json:"rate_limit_max,omitempty"`
	RateLimitWindow *int      `json:"rate_limit_window_minutes,omitempty"`
	GrantedBy       string    `gorm:"size:100" json:"granted_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (PermissionGrant) TableName() string {
	return "permission_grants"
}

// Condition reassembles the tagged condition from the stored columns.
func (g *PermissionGrant) Condition() Condition {
	cond := Condition{Scope: g.Scope}
	if g.RateLimitMax != nil && g.RateLimitWindow != nil {
		cond.RateLimit = &RateLimitCondition{
			MaxActions:    *g.RateLimitMax,
			WindowMinutes: *g.RateLimitWindow,
		}
	}
	return cond
}

// ApplyCondition flattens cond onto the stored columns.
func (g *PermissionGrant) ApplyCondition(cond Condition) {
	g.Scope = cond.Scope
	if cond.RateLimit != nil {
		max := cond.RateLimit.MaxActions
		window := cond.RateLimit.WindowMinutes
		g.RateLimitMax = &max
		g.RateLimitWindow = &window
	} else {
		g.RateLimitMax = nil
		g.RateLimitWindow = nil
	}
}

// RequestContext carries the target-ownership facts a scope decision needs.
// Team membership is resolved by the caller; the evaluator only intersects the
// precomputed team-id sets.
type RequestContext struct {
	SubjectID      string   `json:"subject_id"`
	TargetOwnerID  string   `json:"target_owner_id"`
	SubjectTeamIDs []string `json:"subject_team_ids,omitempty"`
	TargetTeamIDs  []string `json:"target_team_ids,omitempty"`
}
