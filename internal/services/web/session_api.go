package web

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/gateway"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/guard"
	webi18n "github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/i18n"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// handleSessionCheck resolves the current cookies into the account
// overview. Unauthenticated callers get a 401 with a null body so clients
// can distinguish "signed out" from transport failures.
func (h *handler) handleSessionCheck(w http.ResponseWriter, r *http.Request) {
	token := session.AccessTokenFromContext(r.Context())
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, nil)
		return
	}

	check, err := h.backend.CheckSession(r.Context(), token)
	if err != nil {
		if gateway.CodeOf(err) == gateway.CodeAuthenticationRequired {
			h.clearSession(w, r)
			writeJSON(w, http.StatusUnauthorized, nil)
			return
		}
		writeBackendError(w, err)
		return
	}

	accounts := make([]map[string]string, 0, len(check.Accounts))
	for _, account := range check.Accounts {
		accounts = append(accounts, map[string]string{
			"id":   account.ID,
			"name": account.Name,
		})
	}
	payload := map[string]any{
		"user": map[string]string{
			"id":         check.User.ID,
			"email":      check.User.Email,
			"first_name": check.User.FirstName,
			"last_name":  check.User.LastName,
			"role":       string(check.User.Role),
		},
		"accounts":          accounts,
		"active_account_id": check.ActiveAccountID,
		"roles":             check.Roles,
		"is_impersonating":  check.IsImpersonating,
	}
	if check.AdminUserID != "" {
		payload["admin_user_id"] = check.AdminUserID
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleRefresh rotates the session on demand using the refresh cookie.
// Browsers call it when they detect an expired access token before the
// proactive scheduler got a chance to run.
func (h *handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := h.tokens.RefreshToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, nil)
		return
	}

	grant, err := h.backend.Refresh(r.Context(), refreshToken)
	if err != nil {
		if gateway.CodeOf(err) == gateway.CodeAuthenticationRequired {
			h.clearSession(w, r)
			writeJSON(w, http.StatusUnauthorized, nil)
			return
		}
		writeBackendError(w, err)
		return
	}

	if err := h.establishSession(w, r, grant); err != nil {
		log.Printf("establish refreshed session: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "failed to establish session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"expires_at": grant.Session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// handleActivity records a user interaction beacon so the proactive
// refresh scheduler keeps the session alive.
func (h *handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok || sess == nil {
		writeJSON(w, http.StatusUnauthorized, nil)
		return
	}
	h.refresher.Touch(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePage serves the dashboard HTML shell. The edge guard has already
// resolved access and locale, so by the time a protected path reaches this
// handler the session cookie is present.
func (h *handler) handlePage(w http.ResponseWriter, r *http.Request) {
	locale := guard.LocaleFromContext(r.Context())
	if locale == "" {
		locale = webi18n.Default()
	}

	greeting := ""
	if sess, ok := session.FromContext(r.Context()); ok && sess != nil {
		greeting = sess.User.FirstName
	}

	templ.Handler(pageShell(locale, greeting)).ServeHTTP(w, r)
}

// pageShell is the minimal document the client application boots from.
func pageShell(locale, user string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, shellDocument,
			templ.EscapeString(locale), templ.EscapeString(user))
		return err
	})
}

const shellDocument = `<!DOCTYPE html>
<html lang="%s">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Thiam</title>
</head>
<body>
<div id="app" data-user="%s"></div>
<script src="/static/app.js" defer></script>
</body>
</html>
`
