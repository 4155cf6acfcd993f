package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError independently of its message
type ErrorType string

const (
	TypeBadRequest          ErrorType = "bad_request"
	TypeValidation          ErrorType = "validation_error"
	TypeInvalidAmount       ErrorType = "invalid_amount"
	TypeNotFound            ErrorType = "not_found"
	TypeUnauthorized        ErrorType = "unauthorized"
	TypeForbidden           ErrorType = "forbidden"
	TypeConflict            ErrorType = "conflict"
	TypeLimitExceeded       ErrorType = "limit_exceeded"
	TypeGuardFailed         ErrorType = "guard_failed"
	TypeUnsupportedFileType ErrorType = "unsupported_file_type"
	TypeStorage             ErrorType = "storage_error"
	TypeNotification        ErrorType = "notification_error"
	TypeInternal            ErrorType = "internal_error"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int                    `json:"code"`
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Errors  []FieldError           `json:"errors,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	cause   error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError of the same type, so callers can compare
// against the sentinels below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type != "" && e.Type == t.Type
}

// Common errors
var (
	ErrNotFound            = &AppError{Code: http.StatusNotFound, Type: TypeNotFound, Message: "Resource not found"}
	ErrUnauthorized        = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Unauthorized"}
	ErrForbidden           = &AppError{Code: http.StatusForbidden, Type: TypeForbidden, Message: "Forbidden"}
	ErrBadRequest          = &AppError{Code: http.StatusBadRequest, Type: TypeBadRequest, Message: "Bad request"}
	ErrInternalServer      = &AppError{Code: http.StatusInternalServerError, Type: TypeInternal, Message: "Internal server error"}
	ErrConflict            = &AppError{Code: http.StatusConflict, Type: TypeConflict, Message: "Resource already exists"}
	ErrValidation          = &AppError{Code: http.StatusUnprocessableEntity, Type: TypeValidation, Message: "Validation failed"}
	ErrInvalidAmount       = &AppError{Code: http.StatusBadRequest, Type: TypeInvalidAmount, Message: "Invalid payment amount"}
	ErrPaymentLimitReached = &AppError{Code: http.StatusConflict, Type: TypeLimitExceeded, Message: "Payment limit reached"}
	ErrGuardFailed         = &AppError{Code: http.StatusConflict, Type: TypeGuardFailed, Message: "Transition not allowed"}
	ErrUnsupportedFileType = &AppError{Code: http.StatusUnsupportedMediaType, Type: TypeUnsupportedFileType, Message: "Only image files are allowed"}
	ErrStorage             = &AppError{Code: http.StatusInternalServerError, Type: TypeStorage, Message: "Database error"}
	ErrNotification        = &AppError{Code: http.StatusBadGateway, Type: TypeNotification, Message: "Notification failed"}
	ErrInvalidToken        = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Invalid token"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Type:    typeForCode(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError is shorthand for a validation error on a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeBadRequest,
		Message: message,
	}
}

// NewPaymentLimitError reports the simple-payment cap and the count already on file
func NewPaymentLimitError(limit int, count int64) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeLimitExceeded,
		Message: fmt.Sprintf("Payment limit reached. Custom orders can only have a maximum of %d payments.", limit),
		Details: map[string]interface{}{"payment_count": count},
	}
}

// NewGuardError reports a refused status transition
func NewGuardError(message, currentStatus string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeGuardFailed,
		Message: message,
		Details: map[string]interface{}{"current_status": currentStatus},
	}
}

// NewUnsupportedFileTypeError reports a rejected upload
func NewUnsupportedFileTypeError(filename string) *AppError {
	return &AppError{
		Code:    http.StatusUnsupportedMediaType,
		Type:    TypeUnsupportedFileType,
		Message: "Only image files are allowed!",
		Details: map[string]interface{}{"file": filename},
	}
}

// NewStorageError wraps a database failure, keeping the driver message
func NewStorageError(op string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    TypeStorage,
		Message: "Database error",
		Details: map[string]interface{}{"operation": op, "error": err.Error()},
		cause:   err,
	}
}

// NewNotificationError wraps a failed send
func NewNotificationError(message, reason string) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Type:    TypeNotification,
		Message: message,
		Details: map[string]interface{}{"error": reason},
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    TypeInternal,
		Message: err.Error(),
	}
}

func typeForCode(code int) ErrorType {
	switch code {
	case http.StatusBadRequest:
		return TypeBadRequest
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusUnauthorized:
		return TypeUnauthorized
	case http.StatusForbidden:
		return TypeForbidden
	case http.StatusConflict:
		return TypeConflict
	case http.StatusUnprocessableEntity:
		return TypeValidation
	default:
		return TypeInternal
	}
}
