package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// The page source blocks default client signatures, so requests carry a
// realistic browser User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/60.0.3112.113 Safari/537.36"

// Fetcher performs HTTP GETs against profile pages. No retries; retry
// policy, if any, belongs to the caller.
type Fetcher struct {
	client  *resty.Client
	baseURL string
}

// NewFetcher creates a Fetcher for the given base URL, e.g.
// "https://instagram.com/".
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	client := resty.New()
	client.SetHeader("User-Agent", userAgent)
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Fetcher{
		client:  client,
		baseURL: baseURL,
	}
}

// Fetch retrieves the profile page body for the given profile name.
func (f *Fetcher) Fetch(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("profile name is empty")
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(f.baseURL + name)
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &HTTPStatusError{Code: resp.StatusCode()}
	}

	return string(resp.Body()), nil
}
