package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/pashkov/biliwatch/pkg/monitor"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/controller.go -pkg mocks -skip-ensure -fmt goimports . Controller

// Server is the admin control surface over the monitor.
type Server struct {
	config      ConfigProvider
	controller  Controller
	adminTokens []string
	version     string
	debug       bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Controller exposes the monitor operations the control surface needs.
type Controller interface {
	Start(ctx context.Context)
	Stop()
	Running() bool
	Status(ctx context.Context) (monitor.Status, error)
	TestPush(ctx context.Context, uid, dest string) error
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance. adminTokens is the caller
// allow-list; an empty list denies every control call.
func New(cfg ConfigProvider, controller Controller, adminTokens []string, version string, debug bool) *Server {
	s := &Server{
		config:      cfg,
		controller:  controller,
		adminTokens: adminTokens,
		version:     version,
		debug:       debug,
		router:      routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("biliwatch", "pashkov", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024)) // 64KB, control calls carry no payloads
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.Use(s.adminOnly)
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("POST /control/start", s.startHandler)
		r.HandleFunc("POST /control/stop", s.stopHandler)
		r.HandleFunc("POST /test-push/{uid}", s.testPushHandler)
	})
}

// adminOnly verifies the caller identity against the configured allow-list.
// An empty list denies everything rather than failing open.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Admin-Token")
		if token == "" || !slices.Contains(s.adminTokens, token) {
			RenderError(w, r, fmt.Errorf("not authorized"), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusHandler returns the monitor snapshot
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.controller.Status(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]interface{}{
		"version": s.version,
		"time":    time.Now().UTC(),
		"monitor": st,
	})
}

// startHandler launches the poll loop, a no-op when already running
func (s *Server) startHandler(w http.ResponseWriter, r *http.Request) {
	if s.controller.Running() {
		RenderJSON(w, r, http.StatusOK, map[string]string{"result": "already running"})
		return
	}
	// the loop must outlive this request
	s.controller.Start(context.WithoutCancel(r.Context()))
	RenderJSON(w, r, http.StatusOK, map[string]string{"result": "started"})
}

// stopHandler requests a cooperative shutdown of the poll loop
func (s *Server) stopHandler(w http.ResponseWriter, r *http.Request) {
	if !s.controller.Running() {
		RenderJSON(w, r, http.StatusOK, map[string]string{"result": "not running"})
		return
	}
	s.controller.Stop()
	RenderJSON(w, r, http.StatusOK, map[string]string{"result": "stopped"})
}

// testPushHandler fetches the author's latest item and delivers it on
// demand, surfacing the raw error to the caller for debugging
func (s *Server) testPushHandler(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	dest := r.URL.Query().Get("dest")

	if err := s.controller.TestPush(r.Context(), uid, dest); err != nil {
		RenderError(w, r, err, http.StatusBadGateway)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]string{"result": "pushed", "uid": uid})
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
