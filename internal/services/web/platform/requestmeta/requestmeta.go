// Package requestmeta provides normalized request metadata helpers.
package requestmeta

import (
	"net/http"
	"strings"
)

// SchemePolicy controls how request metadata resolves request scheme.
//
// TrustForwardedProto must be explicitly enabled for X-Forwarded-Proto to be
// considered. Keeping this explicit avoids trusting headers from untrusted
// clients; production deployments behind the marketplace load balancer turn
// it on.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// IsHTTPS reports whether a request should be treated as HTTPS.
func IsHTTPS(r *http.Request) bool {
	return IsHTTPSWithPolicy(r, SchemePolicy{})
}

// IsHTTPSWithPolicy reports whether a request should be treated as HTTPS
// using the provided scheme policy.
func IsHTTPSWithPolicy(r *http.Request, policy SchemePolicy) bool {
	return requestScheme(r, policy) == "https"
}

func requestScheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")))
		if forwarded == "https" || forwarded == "http" {
			return forwarded
		}
	}
	if r.TLS != nil {
		return "https"
	}
	if r.URL != nil && r.URL.Scheme != "" {
		return strings.ToLower(r.URL.Scheme)
	}
	return "http"
}
