package domain

import "errors"

// Error kinds returned by the service layer. Transport code maps them
// to status codes with errors.Is / errors.As.
var (
	// ErrInvalidInput marks requests missing required parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthenticationRequired is returned when the cookie bundle is
	// missing or the source demands a signed-in session.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrInternal masks unexpected failures. The detail is logged
	// server-side and never echoed to callers.
	ErrInternal = errors.New("internal error")
)

// ExtractionError carries the extraction tool's own failure message
// for sources it rejected or could not process.
type ExtractionError struct {
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}
