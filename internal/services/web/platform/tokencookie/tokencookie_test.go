package tokencookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/platform/requestmeta"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

func setCookies(t *testing.T, rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	t.Helper()
	cookies := make(map[string]*http.Cookie)
	for _, raw := range rec.Header().Values("Set-Cookie") {
		cookie, err := http.ParseSetCookie(raw)
		if err != nil {
			t.Fatalf("parse Set-Cookie %q: %v", raw, err)
		}
		cookies[cookie.Name] = cookie
	}
	return cookies
}

func TestSaveWritesBothTokenCookies(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signin/password", nil)

	store.Save(rec, req, session.TokenData{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    15 * time.Minute,
	})

	cookies := setCookies(t, rec)
	access := cookies[AccessTokenName]
	if access == nil {
		t.Fatal("access token cookie not set")
	}
	if access.Value != "access-1" {
		t.Fatalf("access value = %q, want %q", access.Value, "access-1")
	}
	if access.MaxAge != int((15 * time.Minute).Seconds()) {
		t.Fatalf("access MaxAge = %d, want %d", access.MaxAge, 900)
	}
	if !access.HttpOnly {
		t.Fatal("access cookie must be HttpOnly")
	}
	if access.SameSite != http.SameSiteLaxMode {
		t.Fatalf("access SameSite = %v, want Lax", access.SameSite)
	}
	if access.Path != "/" {
		t.Fatalf("access Path = %q, want %q", access.Path, "/")
	}

	refresh := cookies[RefreshTokenName]
	if refresh == nil {
		t.Fatal("refresh token cookie not set")
	}
	if refresh.MaxAge != int(RefreshTokenLifetime.Seconds()) {
		t.Fatalf("refresh MaxAge = %d, want fixed seven-day ceiling", refresh.MaxAge)
	}
}

func TestSecureFollowsRequestScheme(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "https://dash.example.com/signin/password", nil)

	store.Save(rec, req, session.TokenData{AccessToken: "a", RefreshToken: "r", ExpiresIn: time.Minute})

	for name, cookie := range setCookies(t, rec) {
		if !cookie.Secure {
			t.Errorf("cookie %q not Secure over HTTPS", name)
		}
	}
}

func TestForwardedProtoRequiresTrust(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "http://dash.example.com/signin/password", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	rec := httptest.NewRecorder()
	NewStore(requestmeta.SchemePolicy{}).Save(rec, req, session.TokenData{AccessToken: "a", RefreshToken: "r"})
	for name, cookie := range setCookies(t, rec) {
		if cookie.Secure {
			t.Errorf("cookie %q Secure from untrusted forwarded proto", name)
		}
	}

	rec = httptest.NewRecorder()
	NewStore(requestmeta.SchemePolicy{TrustForwardedProto: true}).Save(rec, req, session.TokenData{AccessToken: "a", RefreshToken: "r"})
	for name, cookie := range setCookies(t, rec) {
		if !cookie.Secure {
			t.Errorf("cookie %q not Secure with trusted forwarded proto", name)
		}
	}
}

func TestReadTrimsAndRejectsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenName, Value: "  token  "})
	if got, ok := store.AccessToken(req); !ok || got != "token" {
		t.Fatalf("AccessToken = %q, %v; want trimmed token", got, ok)
	}
	if !store.Exists(req) {
		t.Fatal("Exists = false with access cookie present")
	}

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	empty.AddCookie(&http.Cookie{Name: AccessTokenName, Value: "   "})
	if _, ok := store.AccessToken(empty); ok {
		t.Fatal("whitespace-only cookie treated as present")
	}
	if store.Exists(empty) {
		t.Fatal("Exists = true for whitespace-only cookie")
	}
}

func TestClearExpiresBothCookies(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{})
	rec := httptest.NewRecorder()
	store.Clear(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	cookies := setCookies(t, rec)
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		cookie := cookies[name]
		if cookie == nil {
			t.Fatalf("cookie %q not cleared", name)
		}
		if cookie.MaxAge != -1 {
			t.Errorf("cookie %q MaxAge = %d, want -1", name, cookie.MaxAge)
		}
		if cookie.Value != "" {
			t.Errorf("cookie %q value = %q, want empty", name, cookie.Value)
		}
	}
}
