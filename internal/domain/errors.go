package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session token matches nothing
	ErrSessionNotFound = errors.New("chat session not found")

	// ErrNotFound is returned for missing users and soil analyses
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when a compare-and-swap update loses
	// to a concurrent writer
	ErrVersionConflict = errors.New("version conflict")

	// ErrForbidden is returned when a caller touches a resource they don't own
	ErrForbidden = errors.New("access denied")

	// ErrEmailTaken is returned on duplicate registration
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on failed login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionClosed is returned when writing to a closed session
	ErrSessionClosed = errors.New("chat session is closed")
)

// ValidationError carries a field-level validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
