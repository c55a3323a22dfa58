package errors

import (
	"errors"
	"fmt"
)

// Common error types for the web gateway
var (
	// Session store errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrStoreUnavailable = errors.New("session store unavailable")

	// Authorization server errors
	ErrAuthServerUnavailable = errors.New("authorization server unavailable")
	ErrMalformedAuthResponse = errors.New("malformed authorization server response")
	ErrMissingTokenPair      = errors.New("token pair missing from authorization response")
	ErrRefreshRejected       = errors.New("refresh token rejected")

	// Policy errors
	ErrInvalidProvider = errors.New("invalid auth provider")

	// Main module errors
	ErrMainModuleUnavailable = errors.New("main module unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
