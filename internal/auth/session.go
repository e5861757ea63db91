package auth

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/calhub/calhub/internal/provider"
)

// State is the lifecycle state of a provider's auth session.
type State int

const (
	SignedOut State = iota
	SigningIn
	SignedIn
	Expired
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "signed-out"
	case SigningIn:
		return "signing-in"
	case SignedIn:
		return "signed-in"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Identity is the provider-supplied profile attached to a session. It is
// opaque to the core: consumed for display only.
type Identity struct {
	Subject     string
	Email       string
	DisplayName string
}

// Session is one provider's credential state. The manager owns exactly one
// session per provider; the Device provider never has a token.
type Session struct {
	Provider provider.Provider
	Identity Identity
	Token    *oauth2.Token
	State    State
}

// Credentials is what a completed sign-in flow yields. Identity-only
// providers leave Token nil.
type Credentials struct {
	Identity Identity
	Token    *oauth2.Token
}

// Auth failure classes. Cancelled and InProgress are normal outcomes of
// interactive flows; Unavailable means the provider's native service is
// missing; TokenExchange wraps code-exchange failures.
var (
	ErrCancelled     = errors.New("sign-in cancelled")
	ErrInProgress    = errors.New("sign-in already in progress")
	ErrUnavailable   = errors.New("auth service unavailable")
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrNoPriorSession is returned by silent flows when there is nothing
	// cached to resume. It is the one silent failure that is expected.
	ErrNoPriorSession = errors.New("no prior session")
)

// Error wraps an auth operation failure with its provider.
type Error struct {
	Provider provider.Provider
	Op       string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("auth %s (%s): %v", e.Op, e.Provider, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Err
}
