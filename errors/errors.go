package errors

import "fmt"

type FunctionalError struct {
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

type TechnicalError struct {
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ResourceNotFoundError struct {
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ForbiddenError struct {
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

type UnauthorizedError struct {
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ConflictError struct {
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ---------------------------------------------------------------------------------------------------------------------

// Functional error, maps to a 400 response.
func Functional(message string, details ...any) error {
	return &FunctionalError{Message: message, Details: getDetails(details...)}
}

func (e *FunctionalError) Error() string {
	return fmt.Sprintf("FunctionalError %s", e.Message)
}

// ---------------------------------------------------------------------------------------------------------------------

// Technical error, maps to a 500 response.
func Technical(message string, details ...any) error {
	return &TechnicalError{Message: message, Details: getDetails(details...)}
}

func (e *TechnicalError) Error() string {
	return fmt.Sprintf("TechnicalError %s", e.Message)
}

// ---------------------------------------------------------------------------------------------------------------------

// ResourceNotFound error, maps to a 404 response.
func ResourceNotFound(message string, details ...any) error {
	return &ResourceNotFoundError{Message: message, Details: getDetails(details...)}
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("ResourceNotFoundError %s", e.Message)
}

// ---------------------------------------------------------------------------------------------------------------------

// Forbidden error, maps to a 403 response.
func Forbidden(message string, details ...any) error {
	return &ForbiddenError{Message: message, Details: getDetails(details...)}
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("ForbiddenError %s", e.Message)
}

// ---------------------------------------------------------------------------------------------------------------------

// Unauthorized error, maps to a 401 response.
func Unauthorized(message string, details ...any) error {
	return &UnauthorizedError{Message: message, Details: getDetails(details...)}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("UnauthorizedError %s", e.Message)
}

// ---------------------------------------------------------------------------------------------------------------------

// Conflict error, maps to a 409 response.
func Conflict(message string, details ...any) error {
	return &ConflictError{Message: message, Details: getDetails(details...)}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ConflictError %s", e.Message)
}

// ---------------------------------------------------------------------------------------------------------------------

func getDetails(details ...any) any {
	if len(details) == 0 {
		return nil
	}
	return details[0]
}
