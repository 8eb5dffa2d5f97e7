package ucam

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/section-sniper/internal/enrollment"
)

// ErrTransport marks a login that never reached the service.
var ErrTransport = errors.New("transport error")

// APIError is a failed call. Unwrap yields the enrollment sentinel for the failure
// class, so callers use errors.Is(err, enrollment.ErrTokenExpired) and friends.
type APIError struct {
	Op      string
	Status  int
	Message string

	kind error
	err  error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("ucam %s failed: %s (status=%d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("ucam %s failed: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.err != nil {
		return []error{e.kind, e.err}
	}
	return []error{e.kind}
}

func kindFor(op string) error {
	switch op {
	case "login":
		return enrollment.ErrAuth
	case "select":
		return enrollment.ErrRejected
	default:
		return enrollment.ErrFetch
	}
}

func classify(op string, status int, msg string) error {
	if op != "login" && (status == http.StatusUnauthorized || strings.Contains(strings.ToLower(msg), "invalid token")) {
		return enrollment.ErrTokenExpired
	}
	return kindFor(op)
}
