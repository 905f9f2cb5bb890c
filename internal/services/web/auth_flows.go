package web

import (
	"log"
	"net/http"
	"strings"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/gateway"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/guard"
	webi18n "github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/i18n"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/routepath"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// establishSession writes a fresh grant into the browser: token cookies,
// sealed session envelope, and a proactive refresh scheduler tracking the
// new expiry.
func (h *handler) establishSession(w http.ResponseWriter, r *http.Request, grant *session.Grant) error {
	// A grant replacing an existing session supersedes its scheduler and
	// its already-consumed refresh token; the old entry must not stay armed.
	if prev, ok := session.FromContext(r.Context()); ok && prev != nil && prev.ID != grant.Session.ID {
		h.refresher.Drop(prev.ID)
		h.passkeys.Drop(prev.ID)
	}

	manager := session.NewManager(cookiePersister{w: w, r: r, sealer: h.sealer})
	manager.Bootstrap(nil)
	if err := manager.Login(grant.Session); err != nil {
		return err
	}
	h.tokens.Save(w, r, grant.Tokens)
	h.refresher.Track(grant.Session, grant.Tokens)
	return nil
}

// clearSession removes every session artifact from the browser and stops
// background refresh for the session, if one was materialized.
func (h *handler) clearSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok && sess != nil {
		h.refresher.Drop(sess.ID)
		h.passkeys.Drop(sess.ID)
	}
	h.tokens.Clear(w, r)
	h.sealer.Clear(w, r)
}

// postLoginRedirect resolves where the browser lands after a successful
// login: the callback URL captured at the guard redirect when it is a safe
// relative path, otherwise the locale landing page.
func postLoginRedirect(r *http.Request, callback string) string {
	locale := guard.LocaleFromContext(r.Context())
	if locale == "" {
		locale = webi18n.Default()
	}
	callback = strings.TrimSpace(callback)
	if callback != "" && strings.HasPrefix(callback, "/") && !strings.HasPrefix(callback, "//") {
		return "/" + locale + callback
	}
	return routepath.Landing(locale)
}

// handlePasswordLogin exchanges email/password for a session grant, or an
// MFA challenge when the account requires a second factor.
func (h *handler) handlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		CallbackURL string `json:"callbackUrl"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	result, err := h.backend.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	if result.MFA != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"mfa_required": true,
			"mfa_token":    result.MFA.Token,
		})
		return
	}

	if err := h.establishSession(w, r, result.Grant); err != nil {
		log.Printf("establish session after login: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "failed to establish session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"redirect_url": postLoginRedirect(r, payload.CallbackURL),
	})
}

// handleMFACode completes a challenged login with the one-time code.
func (h *handler) handleMFACode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MFAToken    string `json:"mfa_token"`
		Code        string `json:"code"`
		CallbackURL string `json:"callbackUrl"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.MFAToken) == "" || strings.TrimSpace(payload.Code) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "mfa_token and code are required")
		return
	}

	grant, err := h.backend.SubmitMFACode(r.Context(), payload.MFAToken, payload.Code)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if err := h.establishSession(w, r, grant); err != nil {
		log.Printf("establish session after mfa: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "failed to establish session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"redirect_url": postLoginRedirect(r, payload.CallbackURL),
	})
}

// handleSignUp creates a new account. The browser is sent to email
// verification; no session is established until the account is verified
// and the user signs in.
func (h *handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}
	if payload.Role != "" && !session.KnownRole(session.Role(payload.Role)) {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "unknown role")
		return
	}

	err := h.backend.Register(r.Context(), gateway.RegisterParams{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      session.Role(payload.Role),
	})
	if err != nil {
		writeBackendError(w, err)
		return
	}

	locale := guard.LocaleFromContext(r.Context())
	if locale == "" {
		locale = webi18n.Default()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"redirect_url": "/" + locale + routepath.VerifyEmail,
	})
}

// handleVerifyEmail confirms the address with the emailed token.
func (h *handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Token) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	if err := h.backend.VerifyEmail(r.Context(), payload.Token); err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verified": true})
}

// handleResendVerification re-sends the verification email.
func (h *handler) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Email) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := h.backend.ResendVerification(r.Context(), payload.Email); err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": true})
}

// handleLogout revokes the backend session and clears the browser state.
// Local cookies are cleared even when revocation fails so the user is
// never stuck signed in.
func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := session.AccessTokenFromContext(r.Context()); token != "" {
		if err := h.backend.Logout(r.Context(), token); err != nil {
			log.Printf("backend logout: %v", err)
		}
	}
	h.clearSession(w, r)

	locale := guard.LocaleFromContext(r.Context())
	if locale == "" {
		locale = webi18n.Default()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"redirect_url": "/" + locale + routepath.SignIn,
	})
}
