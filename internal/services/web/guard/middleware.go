package guard

import (
	"context"
	"net/http"
)

// Resolution is the outcome of locale resolution for one request: either a
// redirect (Status and Location set) or a locale-stripped rewritten path.
type Resolution struct {
	Status   int
	Location string
	Path     string
	Locale   string
}

// Redirects reports whether the resolution carries a redirect-class status.
func (res Resolution) Redirects() bool {
	return res.Status >= 300 && res.Status < 400 && res.Location != ""
}

// LocaleResolver is the external collaborator that owns locale-prefixed
// path handling: given a request, it returns either a redirect or a
// rewritten path. The guard's own logic is independent of which library
// performs the resolution.
type LocaleResolver interface {
	Resolve(*http.Request) Resolution
}

// CookiePresence reports whether a session cookie is present. It must not
// inspect or validate cookie content.
type CookiePresence interface {
	Exists(*http.Request) bool
}

// Guard gates every page request. It reads cookie presence only and never
// writes cookies; the token store owns all cookie mutation.
type Guard struct {
	cookies       CookiePresence
	resolver      LocaleResolver
	defaultLocale string
}

// New returns a guard over the given collaborators.
func New(cookies CookiePresence, resolver LocaleResolver, defaultLocale string) *Guard {
	return &Guard{cookies: cookies, resolver: resolver, defaultLocale: defaultLocale}
}

// Middleware runs the gating decision before the wrapped handler. Allowed
// requests continue with the locale-stripped path and the resolved locale
// in context; everything else gets a 307 redirect.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if SkipsPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		hasSession := g.cookies != nil && g.cookies.Exists(r)
		decision := Decide(path, hasSession, g.defaultLocale)
		if decision.Action == ActionRedirect {
			http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
			return
		}

		// Locale handling is delegated. When the collaborator itself issues
		// a redirect, the guard defers to it unconditionally.
		locale := g.defaultLocale
		if g.resolver != nil {
			resolution := g.resolver.Resolve(r)
			if resolution.Redirects() {
				http.Redirect(w, r, resolution.Location, resolution.Status)
				return
			}
			if resolution.Locale != "" {
				locale = resolution.Locale
			}
			if resolution.Path != "" && resolution.Path != path {
				r = r.Clone(r.Context())
				r.URL.Path = resolution.Path
			}
		}
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), locale)))
	})
}

// localeContextKey is the context key for the resolved request locale.
type localeContextKey struct{}

// WithLocale stores the resolved locale in context.
func WithLocale(ctx context.Context, locale string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// LocaleFromContext returns the resolved locale, or the empty string.
func LocaleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	locale, _ := ctx.Value(localeContextKey{}).(string)
	return locale
}
