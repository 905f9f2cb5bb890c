// Package i18n provides locale resolution for the dashboard's
// locale-prefixed routing.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "thiam_lang"
)

// supported is the list of dashboard locales; the first entry is the
// default.
var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
}

var matcher = language.NewMatcher(supported)

// Default returns the default locale code.
func Default() string {
	return localeCode(supported[0])
}

// Locales returns the supported locale codes.
func Locales() []string {
	codes := make([]string, 0, len(supported))
	for _, tag := range supported {
		codes = append(codes, localeCode(tag))
	}
	return codes
}

// IsLocale reports whether the segment is a supported two-letter locale.
func IsLocale(segment string) bool {
	if len(segment) != 2 {
		return false
	}
	for _, tag := range supported {
		if localeCode(tag) == strings.ToLower(segment) {
			return true
		}
	}
	return false
}

// localeCode reduces a tag to its two-letter base code.
func localeCode(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Resolve determines the best locale for the request: explicit query
// parameter, then preference cookie, then Accept-Language, then default.
func Resolve(r *http.Request) string {
	if r == nil {
		return Default()
	}
	if lang := strings.TrimSpace(r.URL.Query().Get(LangParam)); IsLocale(lang) {
		return strings.ToLower(lang)
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil && IsLocale(cookie.Value) {
		return strings.ToLower(cookie.Value)
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			_, index, _ := matcher.Match(tags...)
			return localeCode(supported[index])
		}
	}
	return Default()
}

// SetLanguageCookie persists the selected locale on the response.
func SetLanguageCookie(w http.ResponseWriter, locale string) {
	if w == nil || !IsLocale(locale) {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    strings.ToLower(locale),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
