package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Backend names carried by completion errors.
const (
	BackendYandexGPT = "YandexGPT"
	BackendGemini    = "Gemini"
)

// LLMError is implemented by every error a Completer returns. YandexCompleter
// retries exactly the errors whose Temporary reports true.
type LLMError interface {
	error
	Code() string
	Message() string
	Temporary() bool
}

// APIError is an answer the model backend rejected or that carried nothing
// usable. For YandexGPT it mirrors the {"error":{"httpCode","httpStatus",
// "message"}} body of the foundation models API, for Gemini it wraps
// genai.APIError or a response without text candidates.
type APIError struct {
	Backend    string
	HTTPStatus int
	ErrorCode  string
	ErrorMsg   string
	Details    string
	Retryable  bool
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s API error (HTTP %d): %s - %s", e.Backend, e.HTTPStatus, e.ErrorCode, e.ErrorMsg)
}

func (e APIError) Code() string {
	return e.ErrorCode
}

func (e APIError) Message() string {
	return e.ErrorMsg
}

func (e APIError) Temporary() bool {
	return e.Retryable
}

// newYandexAPIError classifies a completion API answer by HTTP status.
func newYandexAPIError(status int, code, msg, details string) APIError {
	return APIError{
		Backend:    BackendYandexGPT,
		HTTPStatus: status,
		ErrorCode:  code,
		ErrorMsg:   msg,
		Details:    details,
		Retryable:  isRetryableHTTPStatus(status),
	}
}

// newYandexBodyError converts the error object the completion API may embed
// in an otherwise successful answer.
func newYandexBodyError(e *YandexError) APIError {
	code := e.HTTPStatus
	if code == "" {
		code = ErrorCodeUnknown
	}
	return newYandexAPIError(e.HTTPCode, code, e.Message, fmt.Sprintf("grpc code %d", e.GRPCCode))
}

// newGeminiError maps a GenerateContent failure. A genai.APIError keeps its
// HTTP status and gRPC status name, anything else never reached the model.
func newGeminiError(err error) error {
	var gerr genai.APIError
	if !errors.As(err, &gerr) {
		return newNetworkError(BackendGemini, "generate_content", err)
	}
	if gerr.Code == http.StatusTooManyRequests {
		return RateLimitError{Backend: BackendGemini, RetryAfter: defaultRetryAfter, ErrorMsg: gerr.Message}
	}
	code := gerr.Status
	if code == "" {
		code = ErrorCodeUnknown
	}
	return APIError{
		Backend:    BackendGemini,
		HTTPStatus: gerr.Code,
		ErrorCode:  code,
		ErrorMsg:   gerr.Message,
		Retryable:  isRetryableHTTPStatus(gerr.Code),
	}
}

// NetworkError is a completion request that got no HTTP answer.
type NetworkError struct {
	Backend   string
	Operation string
	Wrapped   error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Operation, e.Wrapped)
}

func (e NetworkError) Code() string {
	return "NETWORK_ERROR"
}

func (e NetworkError) Message() string {
	return e.Backend + " is unreachable"
}

// Temporary is false once the caller gave up on the request.
func (e NetworkError) Temporary() bool {
	return !errors.Is(e.Wrapped, context.Canceled)
}

func (e NetworkError) Unwrap() error {
	return e.Wrapped
}

func newNetworkError(backend, operation string, err error) NetworkError {
	return NetworkError{Backend: backend, Operation: operation, Wrapped: err}
}

// ConfigurationError reports settings a completer cannot start without.
// Backend is empty when the backend itself is unknown.
type ConfigurationError struct {
	Backend  string
	Field    string
	ErrorMsg string
}

func (e ConfigurationError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("llm.%s: %s", e.Field, e.ErrorMsg)
	}
	return fmt.Sprintf("%s llm.%s: %s", e.Backend, e.Field, e.ErrorMsg)
}

func (e ConfigurationError) Code() string {
	return "CONFIGURATION_ERROR"
}

func (e ConfigurationError) Message() string {
	return e.ErrorMsg
}

func (e ConfigurationError) Temporary() bool {
	return false
}

func newConfigurationError(backend, field, msg string) ConfigurationError {
	return ConfigurationError{Backend: backend, Field: field, ErrorMsg: msg}
}

// defaultRetryAfter is used when a 429 carries no usable Retry-After.
const defaultRetryAfter = 60

// RateLimitError is a 429 from either backend. RetryAfter is in seconds.
type RateLimitError struct {
	Backend    string
	RetryAfter int
	ErrorMsg   string
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded: %s (retry after %d seconds)", e.Backend, e.ErrorMsg, e.RetryAfter)
}

func (e RateLimitError) Code() string {
	return "RATE_LIMIT_EXCEEDED"
}

func (e RateLimitError) Message() string {
	return e.ErrorMsg
}

func (e RateLimitError) Temporary() bool {
	return true
}

// IsRetryable reports whether err wraps a temporary LLMError.
func IsRetryable(err error) bool {
	var llmErr LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Temporary()
	}
	return false
}

func isRetryableHTTPStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Error codes set by the completers when the backend gives none.
const (
	ErrorCodeInvalidAPIKey      = "INVALID_API_KEY"
	ErrorCodeInsufficientQuota  = "INSUFFICIENT_QUOTA"
	ErrorCodeModelNotFound      = "MODEL_NOT_FOUND"
	ErrorCodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrorCodeMalformedAnswer    = "MALFORMED_ANSWER"
	ErrorCodeEmptyAnswer        = "EMPTY_ANSWER"
	ErrorCodeUnknown            = "UNKNOWN_ERROR"
)
