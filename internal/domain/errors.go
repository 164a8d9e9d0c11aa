package domain

import "errors"

// Fatal errors. These indicate a bug or corrupted state and must stop the
// event stream rather than be skipped, so that no later event is applied
// on top of wrong aggregates.
var (
	ErrUnclassifiedTransfer = errors.New("transfer matched no classification branch")
	ErrInvalidEvent         = errors.New("event failed validation")
	ErrTokenNotFound        = errors.New("token not found")
	ErrPlayerNotFound       = errors.New("player not found")
)

// IsFatal reports whether an error must halt event processing
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnclassifiedTransfer) ||
		errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrPlayerNotFound)
}
