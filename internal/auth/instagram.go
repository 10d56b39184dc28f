package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Dashikkkk/instagram-statistics/internal/config"
)

const (
	authorizeEndpoint = "https://api.instagram.com/oauth/authorize"
	tokenEndpoint     = "https://api.instagram.com/oauth/access_token"
)

// InstagramClient performs the OAuth authorization-code exchange against
// the Instagram API.
type InstagramClient struct {
	client      *resty.Client
	tokenURL    string
	cfg         config.InstagramConfig
}

// InstagramToken is the provider response to a successful code exchange.
type InstagramToken struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		FullName string `json:"full_name"`
	} `json:"user"`
}

// NewInstagramClient creates an OAuth client from configuration.
func NewInstagramClient(cfg config.InstagramConfig) *InstagramClient {
	client := resty.New()
	client.SetTimeout(15 * time.Second)

	return &InstagramClient{
		client:   client,
		tokenURL: tokenEndpoint,
		cfg:      cfg,
	}
}

// SetTokenURL overrides the token endpoint; used by tests.
func (c *InstagramClient) SetTokenURL(u string) {
	c.tokenURL = u
}

// AuthorizeURL returns the provider URL the frontend redirects the user to.
func (c *InstagramClient) AuthorizeURL() string {
	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("redirect_uri", c.cfg.RedirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "basic")

	return authorizeEndpoint + "?" + params.Encode()
}

// Exchange trades an authorization code for an access token and the basic
// profile of the user who granted it.
func (c *InstagramClient) Exchange(ctx context.Context, code string) (*InstagramToken, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is empty")
	}

	var token InstagramToken
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"grant_type":    "authorization_code",
			"redirect_uri":  c.cfg.RedirectURL,
			"code":          code,
		}).
		SetResult(&token).
		Post(c.tokenURL)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d", resp.StatusCode())
	}

	if token.AccessToken == "" || token.User.ID == "" {
		return nil, fmt.Errorf("token exchange returned incomplete response")
	}

	return &token, nil
}

// InstagramUserID parses the provider's string user id.
func (t *InstagramToken) InstagramUserID() (int64, error) {
	id, err := strconv.ParseInt(t.User.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad instagram user id %q: %w", t.User.ID, err)
	}
	return id, nil
}
