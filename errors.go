package journey

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the whole module. Callers test with errors.Is.
var (
	// ErrValidation reports bad user input. It is never retried.
	ErrValidation = errors.New("invalid input")
	// ErrAuth reports a rejected credential. It is terminal: the user must reconfigure.
	ErrAuth = errors.New("credential invalid")
	// ErrTransient reports a failure worth retrying: connectivity, server errors.
	ErrTransient = errors.New("transient network error")
	// ErrTimeout reports a remote call that exceeded its deadline. It is transient.
	ErrTimeout error = &kindError{msg: "request timed out", parent: ErrTransient}
	// ErrSyncFailed reports a transient failure that outlived its retry budget.
	ErrSyncFailed = errors.New("sync failed")
	// ErrStorage reports a failed local write. The in-memory state is unaffected.
	ErrStorage = errors.New("local storage failed")
	// ErrParse reports a malformed remote or imported payload.
	ErrParse = errors.New("malformed payload")
	// ErrNotConfigured reports a remote operation without a credential.
	ErrNotConfigured = errors.New("remote sync not configured")
)

// kindError is a sentinel that is also a kind of another sentinel.
type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
