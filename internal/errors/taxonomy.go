package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"os"

	"github.com/julianstephens/dockbook/internal/logger"
)

// Kind classifies a failure by how the booking flow recovers from it.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is local and never reaches the appointment service.
	KindValidation
	// KindConflict is a remote rejection with a recovery path.
	KindConflict
	// KindTransport covers unreachable services, 5xx and undecodable replies.
	KindTransport
)

// Exit codes by kind. Unclassified failures exit 1.
const (
	ExitFailure    = 1
	ExitValidation = 2
	ExitConflict   = 3
	ExitTransport  = 4
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// ValidationError reports a malformed or missing field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError is a remote refusal the user can act on: the slot was taken
// (Status 409) or the change needs a reschedule reason.
type ConflictError struct {
	Status         int
	Message        string
	RequiresReason bool
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.RequiresReason {
		return "a reschedule reason is required"
	}
	return "time slot is no longer available"
}

// TransportError wraps anything that kept a request from producing a usable answer.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: http %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether resubmitting the same request may succeed.
func (e *TransportError) Retryable() bool {
	return e.Status == 0 || e.Status >= http.StatusInternalServerError
}

// KindOf classifies err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return KindValidation
	}
	var ce *ConflictError
	if stderrors.As(err, &ce) {
		return KindConflict
	}
	var te *TransportError
	if stderrors.As(err, &te) {
		return KindTransport
	}
	return KindUnknown
}

// RequiresReason reports whether err is the service asking for a reschedule reason.
func RequiresReason(err error) bool {
	var ce *ConflictError
	return stderrors.As(err, &ce) && ce.RequiresReason
}

// Is, As and New mirror the standard library.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }

var kindPrefix = map[Kind]string{
	KindValidation: "Invalid input: ",
	KindConflict:   "Not accepted: ",
	KindTransport:  "Service unavailable: ",
}

// Format renders err for the terminal, prefixed by how it can be recovered from.
func Format(err error) string {
	if err == nil {
		return ""
	}
	prefix, ok := kindPrefix[KindOf(err)]
	if !ok {
		prefix = "Error: "
	}
	return prefix + err.Error()
}

// ExitCode maps err to the process exit status; 0 for nil.
func ExitCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return ExitValidation
	case KindConflict:
		return ExitConflict
	case KindTransport:
		return ExitTransport
	}
	if err == nil {
		return 0
	}
	return ExitFailure
}

// Fatal logs err, prints it on stderr and exits with its ExitCode. A nil err
// is a no-op so command results can be passed straight in.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command failed", "kind", KindOf(err), "err", err)
	fmt.Fprintln(os.Stderr, Format(err))
	os.Exit(ExitCode(err))
}
