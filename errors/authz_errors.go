// errors/authz_errors.go
package errors

import "errors"

var (
	ErrGrantNotFound     = errors.New("grant not found")
	ErrGrantConflict     = errors.New("grant conflict")
	ErrInvalidGrantData  = errors.New("invalid grant data")
	ErrInvalidRateLimit  = errors.New("invalid rate limit configuration")
	ErrStoreUnavailable  = errors.New("authorization store unavailable")
	ErrDatabaseOperation = errors.New("database operation failed")
	ErrInternalServer    = errors.New("internal server error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)
