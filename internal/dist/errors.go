package dist

import "errors"

// ErrInvalidArgs is returned (wrapped) when a distribution is created with
// parameters its function cannot sample from.
var ErrInvalidArgs = errors.New("invalid distribution arguments")

// IsInvalidArgs reports whether err was caused by invalid parameters.
func IsInvalidArgs(err error) bool {
	return errors.Is(err, ErrInvalidArgs)
}
