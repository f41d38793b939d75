package utils

import "net/http"

// FieldError describes one invalid field of a request body or path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the structured error returned to clients. Code follows <status><seq>.
type APIError struct {
	Status  int          `json:"-"`
	Code    int          `json:"code"`
	Message string       `json:"error"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Is reports kind equality so that errors.Is matches any error of the same code.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

var (
	ErrMissingCredentials = &APIError{Status: http.StatusBadRequest, Code: 40001, Message: "Missing username or password"}
	ErrInvalidCredentials = &APIError{Status: http.StatusUnauthorized, Code: 40106, Message: "Username and/or password is incorrect"}
	ErrMissingToken       = &APIError{Status: http.StatusUnauthorized, Code: 40101, Message: "Missing or invalid token"}
	ErrInvalidToken       = &APIError{Status: http.StatusUnauthorized, Code: 40105, Message: "Invalid token. Please log in again."}
	ErrExpiredToken       = &APIError{Status: http.StatusUnauthorized, Code: 40107, Message: "Token expired. Please log in again."}
	ErrUnknownSubject     = &APIError{Status: http.StatusUnauthorized, Code: 40108, Message: "User no longer exists"}
	ErrUnauthorized       = &APIError{Status: http.StatusUnauthorized, Code: 40110, Message: "You are not allowed to modify this resource"}
	ErrNotFound           = &APIError{Status: http.StatusNotFound, Code: 40400, Message: "not found"}
	ErrValidation         = &APIError{Status: http.StatusBadRequest, Code: 40002, Message: "invalid request payload"}
	ErrConflict           = &APIError{Status: http.StatusConflict, Code: 40901, Message: "conflict"}
	ErrRateLimited        = &APIError{Status: http.StatusTooManyRequests, Code: 42901, Message: "rate limit exceeded"}
	ErrInternal           = &APIError{Status: http.StatusInternalServerError, Code: 50000, Message: "internal server error"}
)

// NotFound returns a 404 naming the missing resource.
func NotFound(resource string) *APIError {
	return &APIError{Status: ErrNotFound.Status, Code: ErrNotFound.Code, Message: resource + " not found"}
}

// Validation returns a 400 carrying the offending fields.
func Validation(fields ...FieldError) *APIError {
	return &APIError{Status: ErrValidation.Status, Code: ErrValidation.Code, Message: ErrValidation.Message, Fields: fields}
}

// Conflict returns a 409 with the given message.
func Conflict(message string) *APIError {
	return &APIError{Status: ErrConflict.Status, Code: ErrConflict.Code, Message: message}
}
