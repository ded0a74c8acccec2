package outcome

import (
	"errors"
	"fmt"
)

// Kind is the three-valued result of processing one message.
type Kind int

const (
	Success Kind = iota
	RecoverableFailure
	UnrecoverableFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case RecoverableFailure:
		return "recoverable"
	case UnrecoverableFailure:
		return "unrecoverable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Result struct {
	Kind Kind
	Err  error
}

func Succeeded() Result {
	return Result{Kind: Success}
}

// Retry marks a failure that should go through the backoff schedule.
func Retry(err error) Result {
	return Result{Kind: RecoverableFailure, Err: err}
}

// Fail marks a failure that is redelivered without backoff.
func Fail(err error) Result {
	return Result{Kind: UnrecoverableFailure, Err: err}
}

func (r Result) IsSuccess() bool {
	return r.Kind == Success
}

func (r Result) ErrMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RecoverableError lets error-returning handlers request backoff.
type RecoverableError struct {
	Err error
}

func (e *RecoverableError) Error() string {
	if e.Err == nil {
		return "recoverable failure"
	}
	return e.Err.Error()
}

func (e *RecoverableError) Unwrap() error {
	return e.Err
}

func NewRecoverable(err error) error {
	return &RecoverableError{Err: err}
}

func IsRecoverable(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}

// FromError maps nil to Success, a RecoverableError anywhere in the chain to
// RecoverableFailure, and everything else to UnrecoverableFailure.
func FromError(err error) Result {
	if err == nil {
		return Succeeded()
	}
	if IsRecoverable(err) {
		return Retry(err)
	}
	return Fail(err)
}
