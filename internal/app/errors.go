package app

import "fmt"

// DomainError carries the HTTP status and the machine-readable code
// ("VALIDATION_ERROR", "DUPLICATE_ENTRY", "LIMIT_EXCEEDED", ...) that
// end up in the response envelope.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
