package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/calhub/calhub/internal/provider"
)

// googleRevokeURL is Google's token revocation endpoint.
const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

// GoogleFlow signs in against Google OAuth. Interactive sign-in hands the
// consent URL to an Authorizer and exchanges the code it returns; silent
// sign-in refreshes the cached token.
type GoogleFlow struct {
	// Config is the OAuth client configuration, including scopes.
	Config *oauth2.Config

	// Authorizer obtains an authorization code for the given consent URL,
	// typically by opening a browser and reading the code back. A nil
	// Authorizer makes interactive sign-in unavailable.
	Authorizer func(ctx context.Context, authURL string) (code string, err error)

	// Cache persists tokens between runs. Optional; without it silent
	// sign-in always reports no prior session.
	Cache *TokenCache

	// RevokeURL overrides the revocation endpoint. Used by tests.
	RevokeURL string

	// HTTPClient is used for revocation requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

var _ Flow = (*GoogleFlow)(nil)
var _ SilentFlow = (*GoogleFlow)(nil)
var _ RevokeFlow = (*GoogleFlow)(nil)

// SignIn runs the interactive consent flow.
func (f *GoogleFlow) SignIn(ctx context.Context) (Credentials, error) {
	if f.Authorizer == nil {
		return Credentials{}, &Error{Provider: provider.Google, Op: "signIn", Err: ErrUnavailable}
	}

	authURL := f.Config.AuthCodeURL("state", oauth2.AccessTypeOffline)
	code, err := f.Authorizer(ctx, authURL)
	if err != nil {
		return Credentials{}, err
	}

	tok, err := f.Config.Exchange(ctx, code)
	if err != nil {
		return Credentials{}, &Error{Provider: provider.Google, Op: "signIn",
			Err: fmt.Errorf("%w: %v", ErrTokenExchange, err)}
	}
	f.cacheToken(tok)
	return Credentials{Token: tok}, nil
}

// SignInSilently refreshes the cached token without user interaction.
func (f *GoogleFlow) SignInSilently(ctx context.Context) (Credentials, error) {
	if f.Cache == nil {
		return Credentials{}, ErrNoPriorSession
	}
	tok, err := f.Cache.Load()
	if err != nil {
		return Credentials{}, err
	}

	// TokenSource refreshes transparently when the cached token is stale.
	fresh, err := f.Config.TokenSource(ctx, tok).Token()
	if err != nil {
		return Credentials{}, fmt.Errorf("refreshing token: %w", err)
	}
	f.cacheToken(fresh)
	return Credentials{Token: fresh}, nil
}

// Revoke invalidates the token at Google and drops the cache.
func (f *GoogleFlow) Revoke(ctx context.Context, creds Credentials) error {
	if f.Cache != nil {
		if err := f.Cache.Clear(); err != nil {
			return err
		}
	}
	if creds.Token == nil {
		return nil
	}

	endpoint := f.RevokeURL
	if endpoint == "" {
		endpoint = googleRevokeURL
	}
	form := url.Values{"token": {creds.Token.AccessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoking token: status %d", resp.StatusCode)
	}
	return nil
}

func (f *GoogleFlow) cacheToken(tok *oauth2.Token) {
	if f.Cache == nil {
		return
	}
	// Cache write failures are not fatal: the session still works for this
	// run, only the next silent sign-in loses out.
	_ = f.Cache.Save(tok)
}
