// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

const (
	EventGrantCreated  = "grant.created"
	EventGrantRevoked  = "grant.revoked"
	EventAccessChecked = "access.checked"
	EventQuotaReset    = "ratelimit.reset"
)

type AuditLog struct {
	Timestamp     time.Time       `json:"timestamp"`
	Event         string          `json:"event"`
	ActorID       string          `json:"actor_id"`
	SubjectID     string          `json:"subject_id"`
	Resource      string          `json:"resource"`
	Action        string          `json:"action"`
	Granted       bool            `json:"granted"`
	Reason        string          `json:"reason,omitempty"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
}
