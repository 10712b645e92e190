// Package correlation holds the state that bridges the two halves of a redirect based
// OAuth flow: the record written just before the browser leaves for the authorization
// server, and the single-slot store it lives in until the browser comes back.
package correlation

import (
	"context"
	"errors"
)

// Key is the well-known name of the single in-flight correlation slot.
const Key = "oauth_temp_config"

// ErrEmptyKey is returned by stores when asked for a blank key.
var ErrEmptyKey = errors.New("correlation key cannot be empty")

// Store is the key/value persistence used to carry a correlation record across the redirect.
// The engine only ever uses Key, so it behaves as a single-slot register: a second write
// replaces the first.
type Store interface {
	// Get returns the stored value and whether one was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing anything already there.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
