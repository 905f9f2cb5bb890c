package web

import (
	"net/http"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/platform/sessionseal"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// cookiePersister binds session persistence to the sealed envelope cookie
// for a single request/response cycle. Cookie writes are read-after-write
// consistent within that cycle only; a new request must be materialized to
// observe writes from other in-flight responses.
type cookiePersister struct {
	w      http.ResponseWriter
	r      *http.Request
	sealer *sessionseal.Sealer
}

func (p cookiePersister) Load() (*session.Session, error) {
	return p.sealer.Read(p.r)
}

func (p cookiePersister) Save(sess *session.Session) error {
	return p.sealer.Write(p.w, p.r, sess)
}

func (p cookiePersister) Clear() error {
	p.sealer.Clear(p.w, p.r)
	return nil
}
