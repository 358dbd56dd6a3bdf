package token

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrEmptyToken  = errors.New("empty token")
	ErrMissingRole = errors.New("token has no role claim")
	ErrExpired     = errors.New("token expired or carries no expiry")
)

// DecodeError reports a token that cannot be parsed into Claims.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode token: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
