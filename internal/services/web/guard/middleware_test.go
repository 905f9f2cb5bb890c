package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPresence bool

func (s stubPresence) Exists(*http.Request) bool { return bool(s) }

type stubResolver struct {
	resolution Resolution
}

func (s stubResolver) Resolve(*http.Request) Resolution { return s.resolution }

func TestMiddlewareRedirectsProtectedWithoutSession(t *testing.T) {
	t.Parallel()

	g := New(stubPresence(false), stubResolver{}, "en")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	rec := httptest.NewRecorder()
	g.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
	if got := rec.Header().Get("Location"); got != "/en/signin?callbackUrl=%2Fdashboard" {
		t.Fatalf("Location = %q, want sign-in redirect with callback", got)
	}
}

func TestMiddlewareDefersToResolverRedirect(t *testing.T) {
	t.Parallel()

	resolver := stubResolver{resolution: Resolution{
		Status:   http.StatusTemporaryRedirect,
		Location: "/en/signin",
	}}
	g := New(stubPresence(false), resolver, "en")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run when resolver redirects")
	})

	rec := httptest.NewRecorder()
	g.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signin", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
	if got := rec.Header().Get("Location"); got != "/en/signin" {
		t.Fatalf("Location = %q, want %q", got, "/en/signin")
	}
}

func TestMiddlewareRewritesPathAndCarriesLocale(t *testing.T) {
	t.Parallel()

	resolver := stubResolver{resolution: Resolution{Path: "/dashboard", Locale: "fr"}}
	g := New(stubPresence(true), resolver, "en")

	var gotPath, gotLocale string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLocale = LocaleFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	g.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fr/dashboard", nil))

	if gotPath != "/dashboard" {
		t.Fatalf("path = %q, want %q", gotPath, "/dashboard")
	}
	if gotLocale != "fr" {
		t.Fatalf("locale = %q, want %q", gotLocale, "fr")
	}
}

func TestMiddlewareSkipsStaticAndAPIPaths(t *testing.T) {
	t.Parallel()

	g := New(stubPresence(false), stubResolver{resolution: Resolution{
		Status:   http.StatusTemporaryRedirect,
		Location: "/en/static/app.js",
	}}, "en")

	for _, path := range []string{"/static/app.js", "/api/auth/refresh", "/favicon.ico"} {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		rec := httptest.NewRecorder()
		g.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if !called {
			t.Errorf("handler not reached for %q", path)
		}
	}
}
