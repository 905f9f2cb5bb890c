// Package guard decides, per request and before any page renders, whether
// to allow, redirect to sign-in, or redirect to the authenticated landing
// route.
//
// The decision is a pure function of the request path and session cookie
// presence. The guard never trusts cookie content: token validity is
// re-checked by the backend on every protected API call, so a forged but
// present cookie only grants entry to pages, never to data.
package guard

import (
	"strings"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/routepath"
)

// Class is the static route classification of a canonical path.
type Class int

const (
	// ClassProtected routes require a session.
	ClassProtected Class = iota
	// ClassPublic routes never require a session.
	ClassPublic
	// ClassAuthOnly routes are public routes authenticated users are
	// redirected away from.
	ClassAuthOnly
)

// String returns the classification name for logs.
func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassAuthOnly:
		return "auth-only"
	default:
		return "protected"
	}
}

// StripLocale removes a leading two-letter locale segment so classification
// works on the canonical path.
func StripLocale(path string) string {
	if len(path) < 3 || path[0] != '/' {
		return path
	}
	seg := path[1:3]
	if !isAlpha(seg[0]) || !isAlpha(seg[1]) {
		return path
	}
	rest := path[3:]
	if rest == "" {
		return "/"
	}
	if rest[0] != '/' {
		return path
	}
	return rest
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Classify maps a request path to exactly one class. The path is
// locale-stripped first; classification is independent of request method.
func Classify(path string) Class {
	canonical := StripLocale(path)
	if matchesAny(canonical, routepath.AuthOnlyRoutes()) {
		return ClassAuthOnly
	}
	if matchesAny(canonical, routepath.PublicRoutes()) {
		return ClassPublic
	}
	return ClassProtected
}

// matchesAny reports whether the path equals or is a strict sub-path of
// one of the listed routes.
func matchesAny(path string, routes []string) bool {
	for _, route := range routes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// Action is the guard's verdict for a request.
type Action int

const (
	// ActionAllow passes the request through to the locale handler.
	ActionAllow Action = iota
	// ActionRedirect sends the browser elsewhere before rendering.
	ActionRedirect
)

// Decision is the guard's complete verdict. Location is set for redirects.
type Decision struct {
	Action   Action
	Location string
}

// allow is the pass-through decision.
var allow = Decision{Action: ActionAllow}

// Decide implements the route gating table over (path, cookie presence).
// It performs no I/O and never fails: every input maps to allow or
// redirect.
func Decide(path string, hasSession bool, locale string) Decision {
	// The bare root is special-cased before locale resolution to avoid a
	// double redirect through the locale resolver.
	if path == routepath.Root {
		if hasSession {
			return Decision{Action: ActionRedirect, Location: "/" + locale}
		}
		return Decision{Action: ActionRedirect, Location: "/" + locale + routepath.SignIn}
	}

	switch Classify(path) {
	case ClassAuthOnly:
		if hasSession {
			return Decision{Action: ActionRedirect, Location: routepath.Landing(locale)}
		}
		return allow
	case ClassPublic:
		return allow
	default:
		if hasSession {
			return allow
		}
		return Decision{Action: ActionRedirect, Location: routepath.SignInWithCallback(locale, path)}
	}
}

// SkipsPath reports whether the guard must not run for the request path:
// static assets, image optimization, favicon, and the token-authenticated
// API routes. API calls answer 401s themselves instead of bouncing the
// browser to sign-in.
func SkipsPath(path string) bool {
	if strings.HasPrefix(path, routepath.StaticPrefix) ||
		strings.HasPrefix(path, routepath.ImagePrefix) ||
		strings.HasPrefix(path, routepath.APIPrefix) {
		return true
	}
	return path == routepath.Favicon
}
