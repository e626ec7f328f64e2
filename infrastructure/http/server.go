// Package http owns the API server: middleware stack, operator
// resolution from session cookies, and route wiring.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stoneyard/factory/login"
	"stoneyard/factory/permit"
	"stoneyard/infrastructure/audit"
	"stoneyard/infrastructure/cache"
	"stoneyard/infrastructure/notify"
	sessioncookie "stoneyard/infrastructure/session"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

var ShutdownTimeout = 2 * time.Second

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB           *sqlite.DB
	SessionCache *cache.SessionCache
	Audit        *audit.Service
	Hub          *notify.Hub
	SessionTTL   int
}

// NewServer creates a new http server.
func NewServer(addr string, db *sqlite.DB, sessions *cache.SessionCache, auditSvc *audit.Service, hub *notify.Hub, sessionTTLHours int) *Server {
	s := &Server{
		Addr:         addr,
		router:       chi.NewRouter(),
		DB:           db,
		SessionCache: sessions,
		Audit:        auditSvc,
		Hub:          hub,
		SessionTTL:   sessionTTLHours,
		server: &http.Server{
			MaxHeaderBytes: 1 << 20,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.RegisterAPIRoutes()

	s.server.Handler = s.router
	return s
}

// WithOperatorMiddleware resolves the session cookie into an operator
// identity. Requests without a valid session proceed as GUEST; writes
// are refused per company at the operation layer, so no route here
// carries its own gate.
func (s *Server) WithOperatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator := permit.Guest
		if cookie, err := r.Cookie(sessioncookie.CookieName); err == nil && cookie.Value != "" {
			if session, ok := s.resolveSession(r.Context(), cookie.Value); ok {
				if session.Expired() {
					http.SetCookie(w, sessioncookie.SessionCookie("", -1))
					s.SessionCache.Delete(cookie.Value)
					if err := login.DeleteSessionByToken(r.Context(), s.DB, cookie.Value); err != nil {
						slog.Error("cannot delete expired session", slog.Any("err", err))
					}
				} else {
					operator = session.Staff.Name
				}
			}
		}
		ctx := permit.NewContextWithOperator(r.Context(), operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSession(ctx context.Context, token string) (models.Session, bool) {
	if cached, found := s.SessionCache.Find(token); found {
		return cached, true
	}

	session, err := login.LoadSessionByToken(ctx, s.DB, token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("load session from db failed", slog.Any("err", err))
		}
		return models.Session{}, false
	}

	s.SessionCache.Add(session)
	return session, true
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
