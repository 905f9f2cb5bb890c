package sessionseal

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/platform/requestmeta"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	now := time.Now().Truncate(time.Second)
	return &session.Session{
		ID: "sess-1",
		User: session.User{
			ID:        "user-1",
			Email:     "ana@example.com",
			FirstName: "Ana",
			LastName:  "Lopez",
			Role:      session.RoleCaterer,
			AccountID: "acct-9",
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	sealer, err := NewSealer([]byte("test-seal-key"), requestmeta.SchemePolicy{})
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return sealer
}

func TestNewSealerRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewSealer(nil, requestmeta.SchemePolicy{}); err == nil {
		t.Fatal("NewSealer accepted empty key")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	t.Parallel()

	sealer := newTestSealer(t)
	sess := testSession(t)

	value, err := sealer.Seal(sess)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	got, err := sealer.Open(value)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("ID = %q, want %q", got.ID, sess.ID)
	}
	if got.User != sess.User {
		t.Errorf("User = %+v, want %+v", got.User, sess.User)
	}
	if !got.IssuedAt.Equal(sess.IssuedAt) || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("timestamps = %v/%v, want %v/%v", got.IssuedAt, got.ExpiresAt, sess.IssuedAt, sess.ExpiresAt)
	}
}

func TestOpenRejectsTamperedEnvelope(t *testing.T) {
	t.Parallel()

	sealer := newTestSealer(t)
	value, err := sealer.Seal(testSession(t))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		t.Fatalf("envelope has %d parts, want 3", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, err := sealer.Open(tampered); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("Open(tampered) = %v, want ErrInvalidEnvelope", err)
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	t.Parallel()

	value, err := newTestSealer(t).Seal(testSession(t))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	other, err := NewSealer([]byte("other-key"), requestmeta.SchemePolicy{})
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	if _, err := other.Open(value); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("Open with wrong key = %v, want ErrInvalidEnvelope", err)
	}
}

func TestOpenRejectsExpiredEnvelope(t *testing.T) {
	t.Parallel()

	sealer := newTestSealer(t)
	sess := testSession(t)
	value, err := sealer.Seal(sess)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	sealer.now = func() time.Time { return sess.ExpiresAt.Add(time.Minute) }
	if _, err := sealer.Open(value); !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("Open(expired) = %v, want ErrInvalidEnvelope", err)
	}
}

func TestWriteReadClearCookie(t *testing.T) {
	t.Parallel()

	sealer := newTestSealer(t)
	sess := testSession(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signin/password", nil)
	if err := sealer.Write(rec, req, sess); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw := rec.Header().Get("Set-Cookie")
	cookie, err := http.ParseSetCookie(raw)
	if err != nil {
		t.Fatalf("parse Set-Cookie: %v", err)
	}
	if cookie.Name != Name {
		t.Fatalf("cookie name = %q, want %q", cookie.Name, Name)
	}
	if !cookie.HttpOnly {
		t.Fatal("envelope cookie must be HttpOnly")
	}
	if cookie.MaxAge <= 0 {
		t.Fatalf("MaxAge = %d, want positive", cookie.MaxAge)
	}

	read := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	read.AddCookie(&http.Cookie{Name: Name, Value: cookie.Value})
	got, err := sealer.Read(read)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.User.ID != sess.User.ID {
		t.Fatalf("user ID = %q, want %q", got.User.ID, sess.User.ID)
	}

	clearRec := httptest.NewRecorder()
	sealer.Clear(clearRec, req)
	cleared, err := http.ParseSetCookie(clearRec.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("parse cleared cookie: %v", err)
	}
	if cleared.MaxAge != -1 {
		t.Fatalf("cleared MaxAge = %d, want -1", cleared.MaxAge)
	}
}

func TestReadMissingCookieIsNotFound(t *testing.T) {
	t.Parallel()

	sealer := newTestSealer(t)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if _, err := sealer.Read(req); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Read without cookie = %v, want session.ErrNotFound", err)
	}
}
