package i18n

import (
	"net/http"
	"strings"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/guard"
)

// PathResolver implements locale-prefixed path handling behind the route
// guard's narrow collaborator interface. Paths already carrying a supported
// locale prefix are rewritten to their canonical form; unprefixed paths are
// redirected to the locale the request resolves to.
type PathResolver struct{}

// Resolve returns either a redirect to the locale-prefixed path or the
// locale-stripped rewritten path.
func (PathResolver) Resolve(r *http.Request) guard.Resolution {
	if r == nil || r.URL == nil {
		return guard.Resolution{Path: "/", Locale: Default()}
	}
	path := r.URL.Path

	segment, rest := splitFirstSegment(path)
	if IsLocale(segment) {
		if rest == "" {
			rest = "/"
		}
		return guard.Resolution{Path: rest, Locale: strings.ToLower(segment)}
	}

	location := "/" + Resolve(r) + path
	if r.URL.RawQuery != "" {
		location += "?" + r.URL.RawQuery
	}
	return guard.Resolution{Status: http.StatusTemporaryRedirect, Location: location}
}

// splitFirstSegment returns the first path segment and the remainder
// (including its leading slash).
func splitFirstSegment(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", ""
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx], trimmed[idx:]
	}
	return trimmed, ""
}
