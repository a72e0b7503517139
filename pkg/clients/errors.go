package clients

import "fmt"

// APIError indicates a failed call to an external service.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Cause      error
}

// Error returns the error message.
func (e *APIError) Error() string {
	switch {
	case e.Cause != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s service error (status %d): %v", e.Service, e.StatusCode, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s service error: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("%s service error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}
