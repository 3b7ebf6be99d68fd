package domain

import "errors"

// Domain errors - these are business logic errors that should be translated
// to appropriate HTTP status codes by the handler layer

var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid or expired token")

	// Competition errors
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrCompetitionEnded    = errors.New("competition has ended")

	// Problem errors
	ErrProblemNotFound = errors.New("problem not found")

	// Judging errors
	ErrEmptyQuery          = errors.New("query is empty")
	ErrSolutionUnavailable = errors.New("reference solution unavailable")

	// General errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with the given error and message
func NewDomainError(err error, message string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &DomainError{
		Err:     err,
		Message: message,
	}
}

// QueryError reports that participant SQL could not be run to completion:
// a syntax error, a permission error, a timeout or a refused connection.
// It is an expected outcome and is shown to the participant verbatim.
type QueryError struct {
	Message string
	// SQLState is the five character Postgres error code, when the server sent one
	SQLState string
	Err      error
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// AsQueryError reports whether err carries a QueryError
func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
