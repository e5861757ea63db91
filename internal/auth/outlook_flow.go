package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/calhub/calhub/internal/provider"
)

// OutlookFlow signs in against Microsoft identity (Azure AD) with PKCE.
// The common flow is ExchangeAuthorizationCode: the caller runs the
// consent redirect itself and hands back the resulting code together with
// the verifier from AuthorizationURL.
type OutlookFlow struct {
	// Config is the OAuth client configuration. NewOutlookFlow fills the
	// endpoint from the tenant.
	Config *oauth2.Config

	// Authorizer obtains an authorization code for the given consent URL.
	// A nil Authorizer makes interactive sign-in unavailable; code
	// exchange still works.
	Authorizer func(ctx context.Context, authURL string) (code string, err error)
}

var _ Flow = (*OutlookFlow)(nil)
var _ CodeExchanger = (*OutlookFlow)(nil)

// NewOutlookFlow builds a flow for the given Azure AD tenant. tenantID
// "common" accepts both organizational and personal accounts.
func NewOutlookFlow(clientID, tenantID, redirectURI string, scopes []string) *OutlookFlow {
	return &OutlookFlow{
		Config: &oauth2.Config{
			ClientID:    clientID,
			Endpoint:    microsoft.AzureADEndpoint(tenantID),
			RedirectURL: redirectURI,
			Scopes:      scopes,
		},
	}
}

// AuthorizationURL returns the consent URL and the PKCE verifier that the
// eventual code exchange must present.
func (f *OutlookFlow) AuthorizationURL(state string) (authURL, verifier string) {
	verifier = oauth2.GenerateVerifier()
	authURL = f.Config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authURL, verifier
}

// SignIn runs the interactive consent flow end to end.
func (f *OutlookFlow) SignIn(ctx context.Context) (Credentials, error) {
	if f.Authorizer == nil {
		return Credentials{}, &Error{Provider: provider.Outlook, Op: "signIn", Err: ErrUnavailable}
	}

	authURL, verifier := f.AuthorizationURL("state")
	code, err := f.Authorizer(ctx, authURL)
	if err != nil {
		return Credentials{}, err
	}
	return f.ExchangeCode(ctx, code, verifier)
}

// ExchangeCode redeems an authorization code for tokens, presenting the
// PKCE verifier when one was used.
func (f *OutlookFlow) ExchangeCode(ctx context.Context, code, verifier string) (Credentials, error) {
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	tok, err := f.Config.Exchange(ctx, code, opts...)
	if err != nil {
		return Credentials{}, &Error{Provider: provider.Outlook, Op: "exchange",
			Err: fmt.Errorf("%w: %v", ErrTokenExchange, err)}
	}
	return Credentials{Token: tok}, nil
}
