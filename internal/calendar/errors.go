package calendar

import "fmt"

// NetworkError means the request could not be sent or its response could not be parsed
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServiceError means the service answered but reported failure (success=false)
type ServiceError struct {
	StatusCode int
	Message    string // Server-provided, may be empty
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service reported failure (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("service error (status %d): %s", e.StatusCode, e.Message)
}
