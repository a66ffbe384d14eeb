package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OOBRedirectURL is the redirect used when the user pastes the auth code.
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// OAuthConfig holds the Google OAuth client registration.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Validate reports whether the client registration is usable.
func (c OAuthConfig) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("google client id is required")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("google client secret is required")
	}
	return nil
}

// Config returns the oauth2 configuration for the calendar and Meet scopes.
func (c OAuthConfig) Config() *oauth2.Config {
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = OOBRedirectURL
	}
	return &oauth2.Config{
		ClientID:     strings.TrimSpace(c.ClientID),
		ClientSecret: strings.TrimSpace(c.ClientSecret),
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       DefaultOAuthScopes,
	}
}

// AuthURL returns the consent URL a user opens to authorize calsync.
func (c OAuthConfig) AuthURL(state string) string {
	return c.Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// HTTPClientForUser returns an HTTP client that authenticates as user.
// The stored token is refreshed through conf when it expires. base, when
// non-nil, is used as the underlying transport.
func HTTPClientForUser(ctx context.Context, conf *oauth2.Config, provider TokenProvider, user string, base http.RoundTripper) (*http.Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	token, err := provider.GetTokenForAccount(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for user: %w", err)
	}

	var ts oauth2.TokenSource = oauth2.StaticTokenSource(token)
	if conf != nil {
		ts = conf.TokenSource(ctx, token)
	}

	if base == nil {
		// Force HTTP/1.1 by disabling HTTP/2
		base = &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment}
	}
	return &http.Client{Transport: &oauth2.Transport{Source: ts, Base: base}}, nil
}
