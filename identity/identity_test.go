// campusvoice/identity/identity_test.go
package identity

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campusvoice/config"
	"campusvoice/models"
)

func newProvider(secret string) *Provider {
	cfg := config.Default().Identity
	cfg.TokenSecret = secret
	return NewProvider(cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestNewDeviceID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewDeviceID()
		if !strings.HasPrefix(id, DevicePrefix) || len(id) != len(DevicePrefix)+16 {
			t.Fatalf("malformed device id %q", id)
		}
		if err := ValidateDeviceID(id); err != nil {
			t.Fatalf("generated id failed validation: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate device id %q", id)
		}
		seen[id] = true
	}
}

func TestValidateDeviceID(t *testing.T) {
	testCases := []struct {
		name  string
		id    string
		valid bool
	}{
		{"generated style", "user_abcdef0123456789", true},
		{"client chosen", "anything-goes.123", true},
		{"empty", "", false},
		{"whitespace", "user 1", false},
		{"too long", strings.Repeat("x", config.MaxDeviceIDLen+1), false},
		{"control char", "user\x00", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDeviceID(tc.id)
			if (err == nil) != tc.valid {
				t.Errorf("ValidateDeviceID(%q) = %v, want valid=%v", tc.id, err, tc.valid)
			}
			if err != nil && !errors.Is(err, models.ErrValidation) {
				t.Errorf("error should be a validation error, got %v", err)
			}
		})
	}
}

func TestIssueAndVerify(t *testing.T) {
	p := newProvider("top-secret")
	token, expires, err := p.Issue("user_0011223344556677")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" || time.Until(expires) < 364*24*time.Hour {
		t.Errorf("unexpected token %q expiring %s", token, expires)
	}

	got, err := p.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if got != "user_0011223344556677" {
		t.Errorf("Verify returned %q", got)
	}

	other := newProvider("different-secret")
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another secret should fail, got %v", err)
	}
	if _, err := p.Verify(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token should fail, got %v", err)
	}

	expired := newProvider("top-secret")
	expired.ttl = -time.Minute
	old, _, _ := expired.Issue("user_0011223344556677")
	if _, err := p.Verify(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token should fail, got %v", err)
	}
}

func TestIssueWithoutSecret(t *testing.T) {
	p := newProvider("")
	token, _, err := p.Issue("user_x")
	if err != nil || token != "" {
		t.Errorf("Issue without secret = %q, %v", token, err)
	}
	if _, err := p.Verify("abc"); !errors.Is(err, models.ErrNotConfigured) {
		t.Errorf("Verify without secret should be ErrNotConfigured, got %v", err)
	}
}

func TestMiddlewareResolution(t *testing.T) {
	p := newProvider("top-secret")
	token, _, _ := p.Issue("user_fromtoken00000")

	var got Identity
	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	testCases := []struct {
		name       string
		prepare    func(r *http.Request)
		wantSource Source
		wantID     string
	}{
		{"token wins", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
			r.Header.Set(DeviceHeader, "user_header")
		}, SourceToken, "user_fromtoken00000"},
		{"header", func(r *http.Request) {
			r.Header.Set(DeviceHeader, "user_header")
			r.AddCookie(&http.Cookie{Name: "cv_device", Value: "user_cookie"})
		}, SourceHeader, "user_header"},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "cv_device", Value: "user_cookie"})
		}, SourceCookie, "user_cookie"},
		{"issued", func(r *http.Request) {}, SourceIssued, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.prepare(req)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if got.Source != tc.wantSource {
				t.Errorf("source = %s, want %s", got.Source, tc.wantSource)
			}
			if tc.wantID != "" && got.DeviceID != tc.wantID {
				t.Errorf("device id = %q, want %q", got.DeviceID, tc.wantID)
			}
			if tc.wantSource == SourceIssued {
				setCookie := rr.Header().Get("Set-Cookie")
				if !strings.Contains(setCookie, "cv_device="+got.DeviceID) {
					t.Errorf("issued id should be set as cookie, got %q", setCookie)
				}
			}
		})
	}

	t.Run("bad token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rr.Code)
		}
	})
}
