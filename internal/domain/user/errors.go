package user

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account inactive")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrUsernameTaken      = errors.New("username already taken")
)

// IsAuthError reports whether err should be answered as an authentication
// failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrAccountLocked) ||
		errors.Is(err, ErrInvalidToken)
}
