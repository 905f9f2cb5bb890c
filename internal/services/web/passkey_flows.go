package web

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/passkey"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// credentialPayload shapes a passkey credential for browser consumption.
func credentialPayload(credential passkey.Credential) map[string]any {
	payload := map[string]any{
		"id":         credential.ID,
		"name":       credential.Name,
		"created_at": credential.CreatedAt,
	}
	if !credential.LastUsedAt.IsZero() {
		payload["last_used_at"] = credential.LastUsedAt
	}
	return payload
}

// handlePasskeyLoginStart begins a discoverable passkey login and returns
// the credential request options the browser hands to the authenticator.
func (h *handler) handlePasskeyLoginStart(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.backend.BeginPasskeyLogin(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ceremony_id": challenge.CeremonyID,
		"public_key":  challenge.Options,
	})
}

// handlePasskeyLoginFinish completes passkey login with the authenticator
// assertion and establishes the browser session.
func (h *handler) handlePasskeyLoginFinish(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CeremonyID  string          `json:"ceremony_id"`
		Credential  json.RawMessage `json:"credential"`
		CallbackURL string          `json:"callbackUrl"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.CeremonyID) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "ceremony_id is required")
		return
	}
	if len(payload.Credential) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "credential is required")
		return
	}

	grant, err := h.backend.FinishPasskeyLogin(r.Context(), payload.CeremonyID, payload.Credential)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if err := h.establishSession(w, r, grant); err != nil {
		log.Printf("establish session after passkey login: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "failed to establish session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"redirect_url": postLoginRedirect(r, payload.CallbackURL),
	})
}

// handlePasskeyRegisterStart begins registration of a new passkey for the
// signed-in user.
func (h *handler) handlePasskeyRegisterStart(w http.ResponseWriter, r *http.Request) {
	token := session.AccessTokenFromContext(r.Context())
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "authentication_required", "sign in to register a passkey")
		return
	}

	challenge, err := h.backend.BeginPasskeyRegistration(r.Context(), token)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ceremony_id": challenge.CeremonyID,
		"public_key":  challenge.Options,
	})
}

// handlePasskeyRegisterFinish stores the attestation produced by the
// authenticator, completing registration.
func (h *handler) handlePasskeyRegisterFinish(w http.ResponseWriter, r *http.Request) {
	token := session.AccessTokenFromContext(r.Context())
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "authentication_required", "sign in to register a passkey")
		return
	}

	var payload struct {
		CeremonyID string          `json:"ceremony_id"`
		Name       string          `json:"name"`
		Credential json.RawMessage `json:"credential"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.CeremonyID) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "ceremony_id is required")
		return
	}
	if len(payload.Credential) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "credential is required")
		return
	}

	credential, err := h.backend.FinishPasskeyRegistration(r.Context(), token, payload.CeremonyID, payload.Name, payload.Credential)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, credentialPayload(*credential))
}

// passkeyController resolves the per-session ceremony controller so the
// credential cache survives across requests; requests carrying a token but
// no materialized session get a one-shot controller.
func (h *handler) passkeyController(r *http.Request) (*passkey.Controller, error) {
	if sess, ok := session.FromContext(r.Context()); ok && sess != nil {
		return h.passkeys.For(sess.ID)
	}
	return passkey.NewController(h.passkeys.service, nil)
}

// handlePasskeyList returns the signed-in user's registered passkeys.
func (h *handler) handlePasskeyList(w http.ResponseWriter, r *http.Request) {
	token := session.AccessTokenFromContext(r.Context())
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "authentication_required", "sign in to manage passkeys")
		return
	}

	controller, err := h.passkeyController(r)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal", "passkey controller unavailable")
		return
	}
	credentials, err := controller.ListPasskeys(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(credentials))
	for _, credential := range credentials {
		payload = append(payload, credentialPayload(credential))
	}
	writeJSON(w, http.StatusOK, map[string]any{"passkeys": payload})
}

// handlePasskeyDelete removes one passkey by ID.
func (h *handler) handlePasskeyDelete(w http.ResponseWriter, r *http.Request) {
	token := session.AccessTokenFromContext(r.Context())
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "authentication_required", "sign in to manage passkeys")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "passkey id is required")
		return
	}

	controller, err := h.passkeyController(r)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal", "passkey controller unavailable")
		return
	}
	if err := controller.DeletePasskey(r.Context(), id); err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// handlePasskeyRename updates the display name of one passkey.
func (h *handler) handlePasskeyRename(w http.ResponseWriter, r *http.Request) {
	token := session.AccessTokenFromContext(r.Context())
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "authentication_required", "sign in to manage passkeys")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "passkey id is required")
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	controller, err := h.passkeyController(r)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal", "passkey controller unavailable")
		return
	}
	if err := controller.RenamePasskey(r.Context(), id, payload.Name); err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"renamed": true})
}
