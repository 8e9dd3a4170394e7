package anthropic

import "fmt"

// ClientError is the base error type for all client errors.
type ClientError struct {
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// APIError represents a structured error object returned by the endpoint.
type APIError struct {
	ClientError
	ErrorType  string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s (status=%d): %s", e.ErrorType, e.StatusCode, e.Message)
}

// Fatal-class endpoint errors: retrying cannot help.

type AuthenticationError struct{ APIError }
type PermissionError struct{ APIError }
type QuotaError struct{ APIError }
type InvalidRequestError struct{ APIError }

// Transient-class endpoint errors: safe to retry on the next tick.

type RateLimitError struct{ APIError }
type OverloadedError struct{ APIError }
type ServerError struct{ APIError }

// Non-endpoint errors.

type NetworkError struct{ ClientError }
type TimeoutError struct{ ClientError }
type MalformedResponseError struct{ ClientError }

// errorFromBody maps the endpoint's error.type discriminator to a concrete
// error. Unknown types fall back to status-code mapping.
func errorFromBody(statusCode int, errorType, message string) error {
	ae := APIError{
		ClientError: ClientError{Message: message},
		ErrorType:   errorType,
		StatusCode:  statusCode,
	}

	switch errorType {
	case "authentication_error":
		return &AuthenticationError{APIError: ae}
	case "permission_error":
		return &PermissionError{APIError: ae}
	case "billing_error":
		return &QuotaError{APIError: ae}
	case "invalid_request_error":
		return &InvalidRequestError{APIError: ae}
	case "rate_limit_error":
		return &RateLimitError{APIError: ae}
	case "overloaded_error":
		return &OverloadedError{APIError: ae}
	case "api_error":
		return &ServerError{APIError: ae}
	}

	switch statusCode {
	case 400, 422:
		return &InvalidRequestError{APIError: ae}
	case 401:
		return &AuthenticationError{APIError: ae}
	case 403:
		return &PermissionError{APIError: ae}
	case 429:
		return &RateLimitError{APIError: ae}
	case 529:
		return &OverloadedError{APIError: ae}
	case 500, 502, 503, 504:
		return &ServerError{APIError: ae}
	default:
		return &ae
	}
}

// IsFatal reports whether the error can never succeed on retry:
// bad credential, missing permission, exhausted quota, or a request the
// endpoint will always reject.
func IsFatal(err error) bool {
	switch err.(type) {
	case *AuthenticationError, *PermissionError, *QuotaError, *InvalidRequestError:
		return true
	}
	return false
}

// IsTransient reports whether the error is a load-related endpoint error
// that escalates only after repeated occurrence.
func IsTransient(err error) bool {
	switch err.(type) {
	case *RateLimitError, *OverloadedError, *ServerError:
		return true
	}
	return false
}

// IsRetryable reports whether another attempt is worthwhile at all.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsFatal(err) {
		return false
	}
	// Transport failures, timeouts, malformed bodies, and transient endpoint
	// errors all recover on a later tick. Unknown errors default to retryable.
	return true
}
