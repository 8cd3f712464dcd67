package intervals

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrClientClosed indicates the shared HTTP client has been released
	ErrClientClosed = errors.New("http client is closed")
	// ErrInvalidPath indicates a request path that is not relative to the API root
	ErrInvalidPath = errors.New("invalid request path")
	// ErrInvalidQuery indicates a query parameter that is not a scalar
	ErrInvalidQuery = errors.New("invalid query parameter")
)

// Failure is the uniform error record handed back to tool handlers.
type Failure struct {
	IsError    bool   `json:"error"`
	StatusCode *int   `json:"status_code"`
	Message    string `json:"message"`
}

func newFailure(statusCode int, message string) *Failure {
	code := statusCode
	return &Failure{IsError: true, StatusCode: &code, Message: message}
}

// failureWithoutStatus builds a failure for problems that happened before or
// instead of receiving an HTTP status.
func failureWithoutStatus(message string) *Failure {
	return &Failure{IsError: true, Message: message}
}

// InvalidInput reports a parameter rejected before any request was made
func InvalidInput(format string, args ...any) *Failure {
	return failureWithoutStatus("Invalid input: " + fmt.Sprintf(format, args...))
}

// Status returns the HTTP status code, if one was received
func (f *Failure) Status() (int, bool) {
	if f.StatusCode == nil {
		return 0, false
	}
	return *f.StatusCode, true
}

// JSON renders the failure record. The shape never varies.
func (f *Failure) JSON() string {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Sprintf(`{"error":true,"status_code":null,"message":%q}`, f.Message)
	}
	return string(data)
}

// Err converts the failure into an error for callers outside the tool layer
func (f *Failure) Err() error {
	if code, ok := f.Status(); ok {
		return &APIError{StatusCode: code, Message: f.Message}
	}
	return errors.New(f.Message)
}

// APIError represents an intervals.icu API error status
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("intervals.icu API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
