package repositories

import "fmt"

type errorKind int

const (
	kindNotFound errorKind = iota
	kindConflict
	kindUnavailable
)

// repoError is the concrete RepositoryError used by file-backed repositories.
type repoError struct {
	kind errorKind
	msg  string
	err  error
}

var _ RepositoryError = (*repoError)(nil)

func (e *repoError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *repoError) Unwrap() error       { return e.err }
func (e *repoError) IsNotFound() bool    { return e.kind == kindNotFound }
func (e *repoError) IsConflict() bool    { return e.kind == kindConflict }
func (e *repoError) IsUnavailable() bool { return e.kind == kindUnavailable }

// NewNotFoundError builds a RepositoryError categorised as not-found.
func NewNotFoundError(msg string) RepositoryError {
	return &repoError{kind: kindNotFound, msg: msg}
}

// NewConflictError builds a RepositoryError categorised as conflict.
func NewConflictError(msg string) RepositoryError {
	return &repoError{kind: kindConflict, msg: msg}
}

// NewUnavailableError builds a RepositoryError categorised as unavailable,
// wrapping the underlying cause.
func NewUnavailableError(msg string, err error) RepositoryError {
	return &repoError{kind: kindUnavailable, msg: msg, err: err}
}
