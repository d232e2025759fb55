// Package web provides the HTTP server and handlers for the HR admin console.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/hradmin/internal/config"
	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/export"
	"github.com/JonMunkholm/hradmin/internal/session"
	mw "github.com/JonMunkholm/hradmin/internal/web/middleware"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

//go:embed static
var staticFiles embed.FS

// errRateLimited maps to RATE001.
var errRateLimited = errors.New("rate limit exceeded")

// Server is the HTTP server for the admin console.
type Server struct {
	service  *core.Service
	sessions *session.Manager
	exports  *export.Limiter
	cfg      *config.Config

	router *chi.Mux
	server *http.Server

	limiter      *rateLimiter
	loginLimiter *rateLimiter
	locale       language.Tag
	nav          []templates.NavGroup
	now          func() time.Time
}

// NewServer creates a Server. Resources must be registered before calling it.
func NewServer(service *core.Service, sessions *session.Manager, exports *export.Limiter, cfg *config.Config) *Server {
	s := &Server{
		service:      service,
		sessions:     sessions,
		exports:      exports,
		cfg:          cfg,
		router:       chi.NewRouter(),
		limiter:      newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute),
		loginLimiter: newRateLimiter(cfg.Rate.LoginPerMinute, time.Minute),
		locale:       cfg.Table.Locale(),
		nav:          buildNav(),
		now:          time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.limiter))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(mw.Sessions(s.sessions))

		r.Get("/login", s.handleLoginPage)
		if s.cfg.Rate.Enabled {
			r.With(s.rateLimit(s.loginLimiter)).Post("/login", s.handleLogin)
		} else {
			r.Post("/login", s.handleLogin)
		}
		r.Post("/logout", s.handleLogout)
		r.Post("/theme", s.handleTheme)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(s.respondError))

			r.Get("/", s.handleDashboard)

			r.Route("/r/{key}", func(r chi.Router) {
				r.Get("/", s.handleList)
				r.Post("/", s.handleCreate)
				r.Get("/export", s.handleExport)
				r.Get("/new", s.handleNew)
				r.Get("/{id}/edit", s.handleEdit)
				r.Post("/{id}", s.handleUpdate)
				r.Post("/{id}/delete", s.handleDelete)
				r.Post("/{id}/{action}", s.handleAction)
			})

			r.Get("/attendance", s.handleAttendance)
			r.Post("/attendance/check-in", s.handleCheckIn)
			r.Post("/attendance/check-out", s.handleCheckOut)

			r.Get("/organization", s.handleOrganization)
		})
	})
}

// buildNav lists the sidebar entries from the resource registry.
func buildNav() []templates.NavGroup {
	groups := []templates.NavGroup{{
		Name: "Overview",
		Links: []templates.NavLink{
			{Label: "Dashboard", Href: "/"},
			{Label: "Check in / out", Href: "/attendance"},
			{Label: "Organization chart", Href: "/organization"},
		},
	}}
	for _, name := range core.Groups() {
		g := templates.NavGroup{Name: name}
		for _, def := range core.ByGroup(name) {
			g.Links = append(g.Links, templates.NavLink{Label: def.Info.Label, Href: templates.ResourcePath(def.Info.Key)})
		}
		groups = append(groups, g)
	}
	return groups
}

// Start runs the rate limiter cleanup bound to ctx and serves HTTP until
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.limiter.cleanup(ctx)
	go s.loginLimiter.cleanup(ctx)

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth reports liveness without touching the session store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":         "ok",
		"resources":      core.Count(),
		"exports_active": s.exports.Active(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a fixed-window request budget per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
}

// cleanup drops idle visitors every window until ctx is done.
func (rl *rateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow consumes one token for ip and reports whether the request may pass.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists || time.Since(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return rl.rate > 0
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// rateLimit answers 429 once a client exhausts rl.
func (s *Server) rateLimit(rl *rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if addr, ok := mw.ClientAddr(r.RemoteAddr); ok {
				ip = addr.String()
			}
			if !rl.allow(ip) {
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window/time.Second)))
				s.respondError(w, r, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
