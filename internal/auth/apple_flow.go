package auth

import (
	"context"

	"github.com/calhub/calhub/internal/provider"
)

// AppleBridge is the platform hook for Sign in with Apple. The core has no
// direct Apple SDK; hosts that can present the native sheet plug one in.
type AppleBridge interface {
	// SignIn presents the native sign-in and returns the granted identity.
	SignIn(ctx context.Context) (Identity, error)
	// SignOut discards platform-held credential state.
	SignOut(ctx context.Context) error
}

// AppleFlow is an identity-only flow: it never yields an access token, so
// an Apple session identifies the user without unlocking any remote fetch.
type AppleFlow struct {
	Bridge AppleBridge
}

var _ Flow = (*AppleFlow)(nil)
var _ RevokeFlow = (*AppleFlow)(nil)

// SignIn delegates to the bridge. Without one, Apple sign-in is
// unavailable on this host.
func (f *AppleFlow) SignIn(ctx context.Context) (Credentials, error) {
	if f.Bridge == nil {
		return Credentials{}, &Error{Provider: provider.Apple, Op: "signIn", Err: ErrUnavailable}
	}
	id, err := f.Bridge.SignIn(ctx)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Identity: id}, nil
}

// Revoke delegates to the bridge's sign-out.
func (f *AppleFlow) Revoke(ctx context.Context, _ Credentials) error {
	if f.Bridge == nil {
		return nil
	}
	return f.Bridge.SignOut(ctx)
}
