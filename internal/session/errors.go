package session

import "errors"

// GenericSignInMessage is shown when the backend gives no usable message.
const GenericSignInMessage = "Invalid credentials"

// Sign-in failure classes, matchable with errors.Is.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrContractViolation    = errors.New("auth backend contract violation")
)

// SignInErrorKind classifies a failed sign-in.
type SignInErrorKind string

const (
	KindAuthenticationFailed SignInErrorKind = "AUTHENTICATION_FAILED"
	KindContractViolation    SignInErrorKind = "CONTRACT_VIOLATION"
)

// SignInError is returned by Context.SignIn. Message is safe to show to the user.
type SignInError struct {
	Kind    SignInErrorKind
	Message string
	Err     error
}

func (e *SignInError) Error() string {
	return e.Message
}

func (e *SignInError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *SignInError) Is(target error) bool {
	switch target {
	case ErrAuthenticationFailed:
		return e.Kind == KindAuthenticationFailed
	case ErrContractViolation:
		return e.Kind == KindContractViolation
	default:
		return false
	}
}
