package trace

import (
	"errors"
	"fmt"

	"github.com/Program-Trace-Optimisation/PTO/internal/dist"
)

// Error is a fatal condition detected while replaying a generator.
// Any Error aborts the replay; Play returns it and no output trace.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the sampling-call name involved, if any.
	Name string

	// Func is the sampling function involved, if any.
	Func dist.Func

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes tracer errors.
type ErrorCode string

const (
	// ErrCodeDuplicateName indicates two sampling calls in one replay
	// received the same name.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeInvalidDistribution indicates a sampling call with parameters
	// its function cannot sample from.
	ErrCodeInvalidDistribution ErrorCode = "INVALID_DISTRIBUTION"

	// ErrCodeReentrantPlay indicates Play was called from inside a
	// generator already running under the same tracer.
	ErrCodeReentrantPlay ErrorCode = "REENTRANT_PLAY"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsDuplicateNameError reports whether err is a duplicate-name error.
// Uses errors.As to handle wrapped errors.
func IsDuplicateNameError(err error) bool {
	return hasCode(err, ErrCodeDuplicateName)
}

// IsInvalidDistributionError reports whether err is an invalid
// distribution error.
func IsInvalidDistributionError(err error) bool {
	return hasCode(err, ErrCodeInvalidDistribution)
}

// IsReentrantPlayError reports whether err is a re-entrant Play error.
func IsReentrantPlayError(err error) bool {
	return hasCode(err, ErrCodeReentrantPlay)
}

func hasCode(err error, code ErrorCode) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

func newDuplicateNameError(name string, fn dist.Func) *Error {
	return &Error{
		Code:    ErrCodeDuplicateName,
		Message: fmt.Sprintf("%s call reuses a name already sampled in this replay", fn),
		Name:    name,
		Func:    fn,
	}
}

func newInvalidDistributionError(name string, fn dist.Func, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidDistribution,
		Message: err.Error(),
		Name:    name,
		Func:    fn,
		Err:     err,
	}
}

func newReentrantPlayError() *Error {
	return &Error{
		Code:    ErrCodeReentrantPlay,
		Message: "Play called while a replay is already running on this tracer",
	}
}
