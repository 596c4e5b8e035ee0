package reddit

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// tokenURL is Reddit's OAuth2 token endpoint for script apps.
const tokenURL = "https://www.reddit.com/api/v1/access_token"

// Credentials are the four values the [RedditAPI] config section supplies
// (spec §6). UserAgent must be descriptive per Reddit's API rules; the
// source builds it as "desktop:<client_id>:v0.0.1 (by u/<username>)".
type Credentials struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
}

// UserAgent returns the descriptive User-Agent string Reddit's API
// requires, matching the shape the source builds for praw.
func (c Credentials) UserAgent() string {
	return fmt.Sprintf("desktop:%s:v0.0.1 (by u/%s)", c.ClientID, c.Username)
}

// passwordTokenSource implements oauth2.TokenSource for Reddit's script-app
// (resource-owner password credentials) grant. golang.org/x/oauth2 exposes
// this grant directly on oauth2.Config; this type just adapts it into a
// TokenSource so it can be wrapped with oauth2.ReuseTokenSource for
// automatic caching and refresh.
type passwordTokenSource struct {
	ctx   context.Context
	cfg   *oauth2.Config
	creds Credentials
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.cfg.PasswordCredentialsToken(s.ctx, s.creds.Username, s.creds.Password)
	if err != nil {
		return nil, fmt.Errorf("reddit: password grant: %w", err)
	}
	return tok, nil
}

// newHTTPClient returns an *http.Client that authenticates every request
// with a Reddit OAuth2 access token, transparently fetching and refreshing
// it as needed.
func newHTTPClient(ctx context.Context, creds Credentials) *http.Client {
	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: tokenURL,
		},
	}

	src := oauth2.ReuseTokenSource(nil, &passwordTokenSource{ctx: ctx, cfg: cfg, creds: creds})
	return oauth2.NewClient(ctx, src)
}
