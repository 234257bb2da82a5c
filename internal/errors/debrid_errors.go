package errors

import "fmt"

// DebridErrorCode enumerates the HTTP-shaped error codes a DebridServiceAdapter
// may raise.
type DebridErrorCode string

const (
	DebridUnauthorized        DebridErrorCode = "UNAUTHORIZED"
	DebridForbidden           DebridErrorCode = "FORBIDDEN"
	DebridNotFound            DebridErrorCode = "NOT_FOUND"
	DebridBadRequest          DebridErrorCode = "BAD_REQUEST"
	DebridTooManyRequests     DebridErrorCode = "TOO_MANY_REQUESTS"
	DebridInternalServerError DebridErrorCode = "INTERNAL_SERVER_ERROR"
	DebridNotImplemented      DebridErrorCode = "NOT_IMPLEMENTED"
	DebridServiceUnavailable  DebridErrorCode = "SERVICE_UNAVAILABLE"
	DebridNoMatchingFile      DebridErrorCode = "NO_MATCHING_FILE"
	DebridLockTimeout         DebridErrorCode = "LOCK_TIMEOUT"
	DebridUnknown             DebridErrorCode = "UNKNOWN"
)

// DebridError is raised by DebridServiceAdapter operations.
type DebridError struct {
	StatusCode int
	Code       DebridErrorCode
	Message    string
}

func (e *DebridError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("debrid error %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("debrid error %s (%d)", e.Code, e.StatusCode)
}

// NewDebridError builds a DebridError from a code, inferring the
// conventional HTTP status when one isn't given explicitly.
func NewDebridError(code DebridErrorCode, message string) *DebridError {
	return &DebridError{StatusCode: statusForCode(code), Code: code, Message: message}
}

func statusForCode(code DebridErrorCode) int {
	switch code {
	case DebridUnauthorized:
		return 401
	case DebridForbidden:
		return 403
	case DebridNotFound:
		return 404
	case DebridBadRequest, DebridNoMatchingFile:
		return 400
	case DebridTooManyRequests:
		return 429
	case DebridNotImplemented:
		return 501
	case DebridServiceUnavailable:
		return 503
	case DebridLockTimeout, DebridUnknown:
		return 504
	default:
		return 500
	}
}

// PipelineError attaches stage/service context to an error surfaced as data
// at a pipeline stage boundary, per the errors-as-data propagation policy.
type PipelineError struct {
	Stage   string
	Service string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s[%s]: %v", e.Stage, e.Service, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError wraps err with stage/service context.
func NewPipelineError(stage, service string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Service: service, Err: err}
}
