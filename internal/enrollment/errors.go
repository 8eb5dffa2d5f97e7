package enrollment

import (
	"errors"
	"strings"
)

var (
	// ErrAuth means the login was rejected. A human has to fix the credentials.
	ErrAuth = errors.New("authentication rejected")
	// ErrTokenExpired means the session token stopped being accepted mid-cycle.
	ErrTokenExpired = errors.New("invalid token")
	// ErrFetch is a transient failure while reading section availability.
	ErrFetch = errors.New("fetch sections failed")
	// ErrRejected means the service refused a submitted selection.
	ErrRejected = errors.New("selection rejected")
	// ErrGaveUp is returned by a course task that hit its attempt or time budget.
	ErrGaveUp = errors.New("gave up polling")
)

const invalidTokenText = "invalid token"

// IsTokenExpired classifies err as a session expiry. Errors from the HTTP client carry
// ErrTokenExpired; anything else is matched on its text.
func IsTokenExpired(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), invalidTokenText)
}
