// Package routepath stores canonical HTTP paths for the dashboard.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root           = "/"
	SignIn         = "/signin"
	SignUp         = "/signup"
	ForgotPassword = "/forgot-password"
	ResetPassword  = "/reset-password"
	VerifyEmail    = "/verify-email"
	VerifySMS      = "/verify-sms"
	ErrorPage      = "/error"
	Maintenance    = "/maintenance"
	Demo           = "/demo"
	About          = "/about"

	Dashboard = "/dashboard"
	Requests  = "/requests"
	Offers    = "/offers"
	Menus     = "/menus"
	Inventory = "/inventory"
	Settings  = "/settings"

	// Public auth flow endpoints live under the sign-in page so the route
	// guard's sub-path rule classifies them as public.
	SignInPassword     = "/signin/password"
	SignInMFA          = "/signin/mfa"
	PasskeyLoginStart  = "/signin/passkeys/start"
	PasskeyLoginFinish = "/signin/passkeys/finish"
	SignUpCreate       = "/signup/create"
	VerifyEmailConfirm = "/verify-email/confirm"
	VerifyEmailResend  = "/verify-email/resend"

	// Protected credential management endpoints.
	Logout                 = "/logout"
	SettingsPasskeys       = "/settings/passkeys"
	PasskeyRegisterStart   = "/settings/passkeys/register/start"
	PasskeyRegisterFinish  = "/settings/passkeys/register/finish"
	SettingsPasskeysPrefix = "/settings/passkeys/"

	// API routes the guard treats specially. They are never locale-prefixed
	// and authenticate by token, not by the page-level gating rules.
	APIPrefix       = "/api/"
	SessionCheckAPI = "/api/auth/session"
	RefreshAPI      = "/api/auth/refresh"
	ActivityAPI     = "/api/auth/activity"

	// Request paths the guard never runs on.
	StaticPrefix = "/static/"
	ImagePrefix  = "/_image/"
	Favicon      = "/favicon.ico"

	// CallbackQueryKey preserves the originally requested path across the
	// sign-in redirect.
	CallbackQueryKey = "callbackUrl"
)

// PublicRoutes returns the allow-list of routes reachable without a
// session. A path is public when it equals or is a strict sub-path of one
// of these.
func PublicRoutes() []string {
	return []string{
		SignIn,
		SignUp,
		ForgotPassword,
		ResetPassword,
		VerifyEmail,
		VerifySMS,
		ErrorPage,
		Maintenance,
		Demo,
		About,
	}
}

// AuthOnlyRoutes returns the subset of public routes that authenticated
// users are redirected away from.
func AuthOnlyRoutes() []string {
	return []string{
		SignIn,
		SignUp,
		ForgotPassword,
		ResetPassword,
	}
}

// SettingsPasskey returns the credential management route for one passkey.
func SettingsPasskey(credentialID string) string {
	return SettingsPasskeysPrefix + escapeSegment(credentialID)
}

// SettingsPasskeyRename returns the rename route for one passkey.
func SettingsPasskeyRename(credentialID string) string {
	return SettingsPasskey(credentialID) + "/rename"
}

// SignInWithCallback returns the locale-prefixed sign-in route carrying the
// originally requested path.
func SignInWithCallback(locale, callback string) string {
	target := "/" + locale + SignIn
	callback = strings.TrimSpace(callback)
	if callback == "" {
		return target
	}
	query := url.Values{}
	query.Set(CallbackQueryKey, callback)
	return target + "?" + query.Encode()
}

// Landing returns the locale-prefixed default authenticated landing route.
func Landing(locale string) string {
	return "/" + locale + Root
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
