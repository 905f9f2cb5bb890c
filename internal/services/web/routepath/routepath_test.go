package routepath

import "testing"

func TestSignInWithCallback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		locale   string
		callback string
		want     string
	}{
		{"en", "/dashboard", "/en/signin?callbackUrl=%2Fdashboard"},
		{"fr", "/requests/42", "/fr/signin?callbackUrl=%2Frequests%2F42"},
		{"en", "", "/en/signin"},
		{"en", "   ", "/en/signin"},
	}
	for _, tc := range cases {
		if got := SignInWithCallback(tc.locale, tc.callback); got != tc.want {
			t.Errorf("SignInWithCallback(%q, %q) = %q, want %q", tc.locale, tc.callback, got, tc.want)
		}
	}
}

func TestLanding(t *testing.T) {
	t.Parallel()

	if got := Landing("de"); got != "/de/" {
		t.Fatalf("Landing(de) = %q, want %q", got, "/de/")
	}
}

func TestSettingsPasskeyEscapesID(t *testing.T) {
	t.Parallel()

	if got := SettingsPasskey("cred/1"); got != "/settings/passkeys/cred%2F1" {
		t.Fatalf("SettingsPasskey = %q, want escaped segment", got)
	}
	if got := SettingsPasskeyRename("abc"); got != "/settings/passkeys/abc/rename" {
		t.Fatalf("SettingsPasskeyRename = %q, want %q", got, "/settings/passkeys/abc/rename")
	}
}

func TestPublicRoutesIncludeAuthOnlyRoutes(t *testing.T) {
	t.Parallel()

	public := make(map[string]bool)
	for _, route := range PublicRoutes() {
		public[route] = true
	}
	for _, route := range AuthOnlyRoutes() {
		if !public[route] {
			t.Errorf("auth-only route %q missing from public allow-list", route)
		}
	}
}
