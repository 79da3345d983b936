// Package fault defines the error taxonomy shared by the wire clients
// and the conversation layer.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialMissing is returned before any network I/O when no
	// API key is configured.
	ErrCredentialMissing = errors.New("api credential is not set")

	// ErrPermissionDenied covers microphone acquisition failures.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNetworkUnavailable wraps transport-level failures; callers may
	// switch into offline mode when they see it.
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// UpstreamError reports a non-success response from an external API.
// The body is kept so the user-visible message can include what the
// service actually said.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d: %s", e.Status, e.Body)
}

// MalformedError reports a response whose shape does not match the
// documented contract, including HTML pages from misrouted endpoints.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed response: " + e.Reason
}

func Upstream(status int, body string) error {
	return &UpstreamError{Status: status, Body: body}
}

func Malformed(reason string) error {
	return &MalformedError{Reason: reason}
}
