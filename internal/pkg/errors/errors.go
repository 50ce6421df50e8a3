package errors

import "errors"

var (
	ErrInvalid     = errors.New("invalid")
	ErrNotFound    = errors.New("not found")
	ErrProvider    = errors.New("provider unavailable")
	ErrSynthesis   = errors.New("synthesis failed")
	ErrConsistency = errors.New("index inconsistent")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}
