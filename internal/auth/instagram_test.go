package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dashikkkk/instagram-statistics/internal/config"
)

func testInstagramConfig() config.InstagramConfig {
	return config.InstagramConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://stats.example.com/callback",
	}
}

func TestAuthorizeURL(t *testing.T) {
	client := NewInstagramClient(testInstagramConfig())

	url := client.AuthorizeURL()

	for _, fragment := range []string{
		"https://api.instagram.com/oauth/authorize",
		"client_id=client-id",
		"response_type=code",
		"scope=basic",
	} {
		if !strings.Contains(url, fragment) {
			t.Errorf("expected authorize URL to contain %q, got %q", fragment, url)
		}
	}
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("code"); got != "auth-code" {
			t.Errorf("expected code auth-code, got %q", got)
		}
		if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
			t.Errorf("expected grant_type authorization_code, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "11901158159.2c99cfc.89a611a39ef3417ea",
			"user": {"id": "11901158159", "username": "someuser", "full_name": "Some User"}
		}`))
	}))
	defer srv.Close()

	client := NewInstagramClient(testInstagramConfig())
	client.SetTokenURL(srv.URL)

	token, err := client.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange returned error: %v", err)
	}

	if token.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
	if token.User.Username != "someuser" {
		t.Errorf("expected username someuser, got %q", token.User.Username)
	}

	id, err := token.InstagramUserID()
	if err != nil {
		t.Fatalf("InstagramUserID returned error: %v", err)
	}
	if id != 11901158159 {
		t.Errorf("expected id 11901158159, got %d", id)
	}
}

func TestExchangeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_message": "invalid code"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewInstagramClient(testInstagramConfig())
	client.SetTokenURL(srv.URL)

	if _, err := client.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatal("expected error for provider rejection, got nil")
	}
}

func TestExchangeEmptyCode(t *testing.T) {
	client := NewInstagramClient(testInstagramConfig())

	if _, err := client.Exchange(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty code, got nil")
	}
}
