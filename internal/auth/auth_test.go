package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dashikkkk/instagram-statistics/internal/config"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	identity := Identity{UserID: 42, InstagramID: 6801067483, UserName: "someuser"}

	token, err := GenerateToken(identity, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	got, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}

	if got != identity {
		t.Errorf("expected identity %+v, got %+v", identity, got)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(Identity{UserID: 1}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Fatal("expected error for wrong secret, got nil")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken(Identity{UserID: 1}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ValidateToken(token, testSecret); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestMiddleware(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: testSecret, TokenDuration: time.Hour}
	middleware := Middleware(cfg)

	var gotIdentity Identity
	var called bool
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotIdentity, _ = IdentityFromContext(r.Context())
	}))

	t.Run("missing header", func(t *testing.T) {
		called = false
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if called {
			t.Fatal("handler must not run without a token")
		}
	})

	t.Run("bad format", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		identity := Identity{UserID: 7, InstagramID: 99, UserName: "someuser"}
		token, err := GenerateToken(identity, testSecret, time.Hour)
		if err != nil {
			t.Fatalf("GenerateToken returned error: %v", err)
		}

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if gotIdentity != identity {
			t.Errorf("expected identity %+v on context, got %+v", identity, gotIdentity)
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !CheckPassword("s3cret", hash) {
		t.Error("expected password to match its hash")
	}
	if CheckPassword("wrong", hash) {
		t.Error("expected wrong password to be rejected")
	}
}
