package errors

import (
	"errors"
	"fmt"
)

// Errors shared by the packages around the flow engine. Flow failures themselves are
// typed flows.Error values.
var (
	// Provider metadata errors
	ErrDiscoveryFailed  = errors.New("provider discovery failed")
	ErrMissingEndpoints = errors.New("provider metadata lacks required endpoints")
	ErrInvalidIssuer    = errors.New("issuer must be an absolute http or https URL")

	// Token inspection errors
	ErrNotJWT = errors.New("token is not a JWT")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownStore  = errors.New("unknown store backend")
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
