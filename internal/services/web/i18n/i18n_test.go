package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultAndLocales(t *testing.T) {
	t.Parallel()

	if got := Default(); got != "en" {
		t.Fatalf("Default = %q, want %q", got, "en")
	}
	want := []string{"en", "es", "fr", "de"}
	got := Locales()
	if len(got) != len(want) {
		t.Fatalf("Locales = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Locales[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsLocale(t *testing.T) {
	t.Parallel()

	cases := []struct {
		segment string
		want    bool
	}{
		{"en", true},
		{"ES", true},
		{"fr", true},
		{"de", true},
		{"pt", false},
		{"eng", false},
		{"e", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsLocale(tc.segment); got != tc.want {
			t.Errorf("IsLocale(%q) = %v, want %v", tc.segment, got, tc.want)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	// Query parameter wins over everything.
	req := httptest.NewRequest(http.MethodGet, "/dashboard?lang=fr", nil)
	req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "de"})
	req.Header.Set("Accept-Language", "es")
	if got := Resolve(req); got != "fr" {
		t.Fatalf("query precedence: Resolve = %q, want %q", got, "fr")
	}

	// Cookie wins over the header.
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "de"})
	req.Header.Set("Accept-Language", "es")
	if got := Resolve(req); got != "de" {
		t.Fatalf("cookie precedence: Resolve = %q, want %q", got, "de")
	}

	// Accept-Language is matched against the supported set.
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9,en;q=0.5")
	if got := Resolve(req); got != "es" {
		t.Fatalf("header match: Resolve = %q, want %q", got, "es")
	}

	// Unsupported preferences fall back to the default.
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept-Language", "ja")
	if got := Resolve(req); got != "en" {
		t.Fatalf("fallback: Resolve = %q, want %q", got, "en")
	}

	// Unknown query/cookie values are ignored.
	req = httptest.NewRequest(http.MethodGet, "/dashboard?lang=zz", nil)
	req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "xx"})
	if got := Resolve(req); got != "en" {
		t.Fatalf("invalid inputs: Resolve = %q, want %q", got, "en")
	}
}

func TestSetLanguageCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SetLanguageCookie(rec, "FR")
	cookie, err := http.ParseSetCookie(rec.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("parse Set-Cookie: %v", err)
	}
	if cookie.Name != LangCookieName || cookie.Value != "fr" {
		t.Fatalf("cookie = %s=%s, want %s=fr", cookie.Name, cookie.Value, LangCookieName)
	}

	rec = httptest.NewRecorder()
	SetLanguageCookie(rec, "zz")
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatal("unsupported locale persisted")
	}
}
