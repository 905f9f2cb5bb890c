// Package web hosts the dashboard's browser-facing HTTP server: the edge
// route guard, session cookie handling, and the thin JSON endpoints that
// proxy authentication flows to the backend API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/platform/timeouts"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/gateway"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/guard"
	webi18n "github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/i18n"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/platform/requestmeta"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/platform/sessionseal"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/platform/tokencookie"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/routepath"
)

// Config defines the inputs for the dashboard web server.
type Config struct {
	// HTTPAddr is the listen address for the HTTP server.
	HTTPAddr string `env:"THIAM_WEB_HTTP_ADDR" envDefault:"localhost:8080"`
	// APIBaseURL is the backend REST API the auth flows proxy to.
	APIBaseURL string `env:"THIAM_WEB_API_BASE_URL" envDefault:"http://localhost:8081"`
	// SessionSealKey signs the session envelope cookie. Required.
	SessionSealKey string `env:"THIAM_WEB_SESSION_SEAL_KEY"`
	// TrustForwardedProto accepts X-Forwarded-Proto from a fronting proxy
	// when deciding whether cookies are marked Secure.
	TrustForwardedProto bool `env:"THIAM_WEB_TRUST_FORWARDED_PROTO" envDefault:"false"`
}

// Server hosts the dashboard HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	refresher  *refresher
}

type handler struct {
	config    Config
	backend   *gateway.Client
	tokens    *tokencookie.Store
	sealer    *sessionseal.Sealer
	refresher *refresher
	passkeys  *passkeyRegistry
}

// NewHandler assembles the dashboard HTTP handler: edge guard, locale
// resolution, session materialization, then the route handlers. It is the
// test-oriented entrypoint; NewServer wraps it for process startup.
func NewHandler(config Config, backend *gateway.Client) (http.Handler, error) {
	h, err := newHandler(config, backend)
	if err != nil {
		return nil, err
	}
	return h.routes(), nil
}

func newHandler(config Config, backend *gateway.Client) (*handler, error) {
	if backend == nil {
		return nil, errors.New("backend gateway client is required")
	}
	key := strings.TrimSpace(config.SessionSealKey)
	if key == "" {
		return nil, errors.New("session seal key is required")
	}

	policy := requestmeta.SchemePolicy{TrustForwardedProto: config.TrustForwardedProto}
	sealer, err := sessionseal.NewSealer([]byte(key), policy)
	if err != nil {
		return nil, fmt.Errorf("build session sealer: %w", err)
	}

	return &handler{
		config:    config,
		backend:   backend,
		tokens:    tokencookie.NewStore(policy),
		sealer:    sealer,
		refresher: newRefresher(backend),
		passkeys:  newPasskeyRegistry(backend.PasskeyService()),
	}, nil
}

// routes wires every route behind the edge guard and the session
// materialization middleware.
func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+routepath.SignInPassword, h.handlePasswordLogin)
	mux.HandleFunc("POST "+routepath.SignInMFA, h.handleMFACode)
	mux.HandleFunc("POST "+routepath.PasskeyLoginStart, h.handlePasskeyLoginStart)
	mux.HandleFunc("POST "+routepath.PasskeyLoginFinish, h.handlePasskeyLoginFinish)
	mux.HandleFunc("POST "+routepath.SignUpCreate, h.handleSignUp)
	mux.HandleFunc("POST "+routepath.VerifyEmailConfirm, h.handleVerifyEmail)
	mux.HandleFunc("POST "+routepath.VerifyEmailResend, h.handleResendVerification)
	mux.HandleFunc("POST "+routepath.Logout, h.handleLogout)

	mux.HandleFunc("POST "+routepath.PasskeyRegisterStart, h.handlePasskeyRegisterStart)
	mux.HandleFunc("POST "+routepath.PasskeyRegisterFinish, h.handlePasskeyRegisterFinish)
	mux.HandleFunc("GET "+routepath.SettingsPasskeys, h.handlePasskeyList)
	mux.HandleFunc("DELETE "+routepath.SettingsPasskeysPrefix+"{id}", h.handlePasskeyDelete)
	mux.HandleFunc("POST "+routepath.SettingsPasskeysPrefix+"{id}/rename", h.handlePasskeyRename)

	mux.HandleFunc("GET "+routepath.SessionCheckAPI, h.handleSessionCheck)
	mux.HandleFunc("POST "+routepath.RefreshAPI, h.handleRefresh)
	mux.HandleFunc("POST "+routepath.ActivityAPI, h.handleActivity)

	mux.HandleFunc("GET /", h.handlePage)

	edge := guard.New(h.tokens, webi18n.PathResolver{}, webi18n.Default())
	return edge.Middleware(h.withSession(mux))
}

// NewServer builds a configured dashboard web server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	baseURL := strings.TrimSpace(config.APIBaseURL)
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}

	backend := gateway.New(baseURL)
	h, err := newHandler(config, backend)
	if err != nil {
		return nil, fmt.Errorf("build handler: %w", err)
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           h.routes(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	return &Server{
		httpAddr:   httpAddr,
		httpServer: httpServer,
		refresher:  h.refresher,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("dashboard listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if s.refresher != nil {
			s.refresher.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// maxBodyBytes caps JSON request bodies accepted by the auth endpoints.
const maxBodyBytes = 1 << 20

// readJSON decodes the request body into target with a size cap.
func readJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return decoder.Decode(target)
}

// writeJSON writes JSON responses with a consistent content type.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

// writeJSONError writes the shared error envelope for failures raised by
// the web layer itself.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeBackendError maps a gateway error onto the HTTP response, keeping
// the backend's machine-readable code when it carried one.
func writeBackendError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	code := gateway.CodeInternal
	message := "request failed"

	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		code = gerr.Code
		if gerr.Message != "" {
			message = gerr.Message
		}
		if gerr.Status != 0 {
			status = gerr.Status
		}
	}
	switch code {
	case gateway.CodeInvalidCredentials, gateway.CodeInvalidMFACode:
		status = http.StatusUnauthorized
	case gateway.CodeAuthenticationRequired:
		status = http.StatusUnauthorized
	case gateway.CodeNotFound:
		status = http.StatusNotFound
	case gateway.CodeDecodeFailed:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    string(code),
			"message": message,
		},
	})
}
