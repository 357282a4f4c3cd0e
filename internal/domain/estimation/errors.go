package estimation

import "errors"

var (
	// ErrInvalidFormat indicates a value without a d or h suffix.
	ErrInvalidFormat = errors.New("invalid estimation format")
	// ErrInvalidValue indicates a suffix with a non-numeric amount.
	ErrInvalidValue = errors.New("invalid estimation value")
	// ErrInvalidInput indicates a malformed submission.
	ErrInvalidInput = errors.New("invalid estimation input")
)
