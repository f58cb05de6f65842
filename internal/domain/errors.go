package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Type    string
	Message string
	Code    string
}

func (e DomainError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// ValidationError represents a form precondition violation, surfaced
// before any request is made
type ValidationError struct {
	DomainError
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		DomainError: DomainError{
			Type:    "VALIDATION_ERROR",
			Message: message,
			Code:    "VALIDATION_FAILED",
		},
	}
}

// BusinessError represents a business rule violation
type BusinessError struct {
	DomainError
}

// NewBusinessError creates a new business error
func NewBusinessError(message string) *BusinessError {
	return &BusinessError{
		DomainError: DomainError{
			Type:    "BUSINESS_ERROR",
			Message: message,
			Code:    "BUSINESS_RULE_VIOLATION",
		},
	}
}

// NotFoundError represents a not found error
type NotFoundError struct {
	DomainError
	Resource string
	ID       string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		DomainError: DomainError{
			Type:    "NOT_FOUND_ERROR",
			Message: fmt.Sprintf("%s with ID '%s' not found", resource, id),
			Code:    "RESOURCE_NOT_FOUND",
		},
		Resource: resource,
		ID:       id,
	}
}

// NetworkError represents a transport failure while calling the bridge API
type NetworkError struct {
	DomainError
	Op  string
	Err error
}

// NewNetworkError creates a new network error wrapping the transport failure
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{
		DomainError: DomainError{
			Type:    "NETWORK_ERROR",
			Message: fmt.Sprintf("%s: %v", op, err),
			Code:    "UPSTREAM_UNREACHABLE",
		},
		Op:  op,
		Err: err,
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BackendError represents a non-success response body from the bridge API,
// e.g. a missing expected data field
type BackendError struct {
	DomainError
	Op string
}

// NewBackendError creates a new backend error
func NewBackendError(op, message string) *BackendError {
	return &BackendError{
		DomainError: DomainError{
			Type:    "BACKEND_ERROR",
			Message: fmt.Sprintf("%s: %s", op, message),
			Code:    "UPSTREAM_REJECTED",
		},
		Op: op,
	}
}

// Form validation errors. Messages are the operator-facing texts shown
// by the console, so they stay in Spanish.

func ErrAliasRequired() error {
	return NewValidationError("El alias es requerido")
}

func ErrUserRequired() error {
	return NewValidationError("Debe seleccionar un usuario")
}

func ErrMainDeviceExists() error {
	return NewValidationError("Ya existe un dispositivo principal")
}

// Registry errors

func ErrInstanceNotFound(name string) error {
	return NewNotFoundError("Instance", name)
}

func ErrInstanceLimitReached(max int) error {
	return NewBusinessError(fmt.Sprintf("Número máximo de instancias (%d) alcanzado", max))
}
