package web

import (
	"log"
	"net/http"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// withSession materializes the typed session for the request from the
// sealed envelope cookie and exposes it through the context, together with
// the bearer access token handlers forward to the backend.
//
// Authenticated traffic counts as user activity for the refresh gate, and
// any grant produced by a background refresh is applied here so the
// rotated cookies ride out on this response.
func (h *handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if token, ok := h.tokens.AccessToken(r); ok {
			ctx = session.WithAccessToken(ctx, token)
		}

		manager := session.NewManager(cookiePersister{w: w, r: r, sealer: h.sealer})
		manager.Bootstrap(nil)

		if sess := manager.Session(); sess != nil {
			h.refresher.Touch(sess.ID)
			if grant := h.refresher.TakePending(sess.ID); grant != nil {
				if err := manager.RefreshSession(grant.Session); err != nil {
					log.Printf("apply refreshed session: %v", err)
				} else {
					h.tokens.Save(w, r, grant.Tokens)
					// Backends may rotate the session ID on refresh; the
					// refresher entry must follow the ID the new envelope
					// carries or Touch and TakePending go dark.
					h.refresher.Drop(sess.ID)
					h.refresher.Track(grant.Session, grant.Tokens)
					h.passkeys.Rekey(sess.ID, grant.Session.ID)
					sess = manager.Session()
					ctx = session.WithAccessToken(ctx, grant.Tokens.AccessToken)
				}
			}
			ctx = session.NewContext(ctx, sess)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
