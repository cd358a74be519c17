package core

import "fmt"

// PermanentError wraps client errors that will not go away by retrying,
// like a malformed endpoint or a repository that does not exist.
type PermanentError struct {
	err error
}

func NewPermanentError(err error) *PermanentError {
	if err == nil {
		return nil
	}

	return &PermanentError{err: err}
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent client error: %s", e.err.Error())
}

func (e *PermanentError) Unwrap() error { return e.err }

// UnexpectedError wraps transient client errors, typically network failures
// that a caller may choose to retry.
type UnexpectedError struct {
	err error
}

func NewUnexpectedError(err error) *UnexpectedError {
	if err == nil {
		return nil
	}

	return &UnexpectedError{err: err}
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected client error: %s", e.err.Error())
}

func (e *UnexpectedError) Unwrap() error { return e.err }
