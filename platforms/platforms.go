package platforms

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Kind identifies the external network an account belongs to. The set is
// closed: every dispatchable post carries exactly one of these tags.
type Kind string

const (
	KindMastodon Kind = "mastodon"
	KindBluesky  Kind = "bluesky"
)

// ValidKind reports whether s names a registered-able platform kind.
func ValidKind(s string) bool {
	switch Kind(s) {
	case KindMastodon, KindBluesky:
		return true
	}
	return false
}

// Credential carries the decrypted material a client needs for one publish
// call. Which fields are set depends on the platform kind.
type Credential struct {
	// Token is the Mastodon access token or the Bluesky app password.
	Token string
	// InstanceURL is the Mastodon instance base URL.
	InstanceURL string
	// Handle is the Bluesky handle (without the @ prefix).
	Handle string
}

// Client is the uniform publish capability implemented per network.
type Client interface {
	Kind() Kind
	// Publish delivers content and returns the platform-assigned post
	// identifier (status URL for Mastodon, AT-URI for Bluesky).
	Publish(ctx context.Context, cred Credential, content string) (string, error)
}

// publishError normalizes a platform failure into the shared contract the
// dispatcher consumes. Terminal failures cannot succeed on retry.
type publishError struct {
	kind     Kind
	message  string
	terminal bool
	cause    error
}

func (e *publishError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *publishError) Unwrap() error { return e.cause }

// TerminalError wraps err as a non-retriable delivery failure.
func TerminalError(kind Kind, message string, cause error) error {
	return &publishError{kind: kind, message: message, terminal: true, cause: cause}
}

// TransientError wraps err as a retriable delivery failure.
func TransientError(kind Kind, message string, cause error) error {
	return &publishError{kind: kind, message: message, cause: cause}
}

// IsTerminal reports whether err was classified as non-retriable.
func IsTerminal(err error) bool {
	var pe *publishError
	return errors.As(err, &pe) && pe.terminal
}

// Registry holds the closed set of platform clients keyed by kind.
type Registry struct {
	mu      sync.RWMutex
	clients map[Kind]Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[Kind]Client, len(clients))}
	for _, c := range clients {
		r.clients[c.Kind()] = c
	}
	return r
}

func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Kind()] = c
}

// Resolve returns the client for kind. A missing client is a configuration
// defect, never a post-level delivery failure.
func (r *Registry) Resolve(kind Kind) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[kind]
	if !ok {
		return nil, fmt.Errorf("no platform client registered for kind %q", kind)
	}
	return c, nil
}
