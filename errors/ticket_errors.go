// errors/ticket_errors.go
package errors

import "errors"

var (
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrInvalidTicketData = errors.New("invalid ticket data")
)
