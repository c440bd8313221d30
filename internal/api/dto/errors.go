package dto

// APIError represents a structured error response.
// All error responses from the API use this format for consistency.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound             = "not_found"
	ErrCodeBadRequest           = "bad_request"
	ErrCodeInternalError        = "internal_error"
	ErrCodeValidation           = "validation_error"
	ErrCodeConfirmationRequired = "confirmation_required"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}

// ConfirmationError is the 409 payload for a blocked unequal manual match.
// The client is expected to re-submit with confirmations incremented after
// showing the difference to the user.
type ConfirmationError struct {
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	Difference float64 `json:"difference"`
	Given      int     `json:"confirmations_given"`
	Required   int     `json:"confirmations_required"`
}
