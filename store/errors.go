package store

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest is returned when the store rejected a request as invalid,
	// including batches exceeding the store's size limit.
	ErrBadRequest = errors.New("kennel: bad request")

	// ErrTimeout is returned when the store did not answer before the deadline.
	ErrTimeout = errors.New("kennel: timeout")

	// ErrNotFound is returned when a document doesn't exist.
	ErrNotFound = errors.New("kennel: document not found")

	// ErrAlreadyExists is returned when creating a document whose id is taken.
	ErrAlreadyExists = errors.New("kennel: document already exists")

	// ErrNotAuthorized is returned when the caller may not access the document.
	ErrNotAuthorized = errors.New("kennel: not authorized")

	// ErrUnknown is returned for every other store failure.
	ErrUnknown = errors.New("kennel: unknown store error")

	// ErrDecoding matches every *DecodingError.
	ErrDecoding = errors.New("kennel: decoding failed")
)

// Code is a store status code.
type Code int

// Status codes reported by drivers.
const (
	CodeOK Code = iota
	CodeCancelled
	CodeUnknown
	CodeInvalidArgument
	CodeDeadlineExceeded
	CodeNotFound
	CodeAlreadyExists
	CodePermissionDenied
	CodeResourceExhausted
	CodeFailedPrecondition
	CodeAborted
	CodeOutOfRange
	CodeUnimplemented
	CodeInternal
	CodeUnavailable
	CodeDataLoss
	CodeUnauthenticated
)

var codeNames = [...]string{
	"ok", "cancelled", "unknown", "invalid argument", "deadline exceeded",
	"not found", "already exists", "permission denied", "resource exhausted",
	"failed precondition", "aborted", "out of range", "unimplemented",
	"internal", "unavailable", "data loss", "unauthenticated",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// StatusError is a failure reported by the store.
type StatusError struct {
	Code    Code
	Message string

	// Err is the driver level cause, if any.
	Err error
}

// Statusf returns a *StatusError with a formatted message.
func Statusf(code Code, format string, args ...any) *StatusError {
	return &StatusError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Message
}

func (e *StatusError) Unwrap() error { return e.Err }

// Translate maps a store status code to the domain error taxonomy. It
// returns nil for CodeOK and CodeCancelled: a cancelled call is a deliberate
// unsubscription, not a failure.
func Translate(code Code) error {
	switch code {
	case CodeOK, CodeCancelled:
		return nil
	case CodeInvalidArgument:
		return ErrBadRequest
	case CodeDeadlineExceeded:
		return ErrTimeout
	case CodeNotFound:
		return ErrNotFound
	case CodeAlreadyExists:
		return ErrAlreadyExists
	case CodePermissionDenied, CodeUnauthenticated:
		return ErrNotAuthorized
	default:
		return ErrUnknown
	}
}

// DecodingError is returned when a document cannot be decoded into its
// entity type. The enclosing fetch or subscription fails as a whole.
type DecodingError struct {
	Ref DocumentRef
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("kennel: decode %s: %v", e.Ref, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecoding) match.
func (e *DecodingError) Is(target error) bool { return target == ErrDecoding }

// ContractViolation is the panic value raised when a scope is resolved
// through the wrong accessor, or is malformed. It signals a caller bug and
// must not be recovered and retried.
type ContractViolation struct {
	Accessor string
	Scope    string
	Reason   string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("kennel: contract violation: %s(%s): %s", e.Accessor, e.Scope, e.Reason)
}

// OpError records the operation and target of a failed call.
type OpError struct {
	Op     string
	Target string
	Err    error
}

func (e *OpError) Error() string {
	if e.Target == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Target + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// translateError converts a driver or decoding failure into the error
// returned to callers. Store failures become taxonomy errors carrying the
// store's message; anything else keeps its own text.
func translateError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	var status *StatusError
	if errors.As(err, &status) {
		if domain := Translate(status.Code); domain != nil {
			if status.Message != "" {
				domain = fmt.Errorf("%w: %s", domain, status.Message)
			}
			return &OpError{Op: op, Target: target, Err: domain}
		}
	}
	return &OpError{Op: op, Target: target, Err: err}
}

// isCancelled reports whether err is a store cancellation.
func isCancelled(err error) bool {
	var status *StatusError
	return errors.As(err, &status) && status.Code == CodeCancelled
}
