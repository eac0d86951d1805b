// model/ticket.go
package model

import "time"

// Ticket is a support ticket, the guarded business entity the enforcement
// middleware is exercised against.
type Ticket struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"size:20;not null;default:open" json:"status"` // "open", "pending", "closed"
	OwnerID     string    `gorm:"index;size:100;not null" json:"owner_id"`
	TeamID      string    `gorm:"size:100" json:"team_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Ticket) TableName() string {
	return "tickets"
}
