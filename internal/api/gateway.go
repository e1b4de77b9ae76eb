// Package api exposes the helpdesk over HTTP: the AI call entry point, the
// supervisor endpoints, and the read-only listings the dashboard consumes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/frontdesk-ai/frontdesk/internal/agent"
	"github.com/frontdesk-ai/frontdesk/internal/request"
	"github.com/frontdesk-ai/frontdesk/internal/store"
)

// GatewayConfig configures the HTTP server.
type GatewayConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	EnableCORS     bool          `yaml:"enable_cors"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// DefaultGatewayConfig returns default HTTP settings.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Host:           "0.0.0.0",
		Port:           4000,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
	}
}

// Gateway is the HTTP front of the helpdesk.
type Gateway struct {
	server    *http.Server
	router    *mux.Router
	resolver  *agent.Resolver
	lifecycle *request.Service
	knowledge store.KnowledgeStore
	pinger    interface {
		Ping(ctx context.Context) error
	}
}

// NewGateway wires the router and the underlying HTTP server.
func NewGateway(cfg GatewayConfig, resolver *agent.Resolver, lifecycle *request.Service, st store.Store) *Gateway {
	g := &Gateway{
		router:    mux.NewRouter(),
		resolver:  resolver,
		lifecycle: lifecycle,
		knowledge: st,
		pinger:    st,
	}
	g.setupRoutes()

	var handler http.Handler = g.router
	if cfg.EnableCORS {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}).Handler(handler)
	}
	handler = logMiddleware(handler)

	g.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return g
}

func (g *Gateway) setupRoutes() {
	api := g.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/ai/call", g.handleAICall).Methods("POST")

	supervisor := api.PathPrefix("/supervisor").Subrouter()
	supervisor.HandleFunc("/pending", g.handlePendingRequests).Methods("GET")
	supervisor.HandleFunc("/respond", g.handleRespond).Methods("POST")
	supervisor.HandleFunc("/unresolve", g.handleUnresolve).Methods("POST")
	supervisor.HandleFunc("/unresolved", g.handleUnresolvedRequests).Methods("GET")

	api.HandleFunc("/help-requests", g.handleCreateHelpRequest).Methods("POST")
	api.HandleFunc("/help-requests", g.handleListHelpRequests).Methods("GET")

	api.HandleFunc("/knowledge", g.handleListKnowledge).Methods("GET")

	api.HandleFunc("/health", g.handleHealth).Methods("GET")
}

// Handler exposes the routed handler, primarily for tests.
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler
}

// Start serves HTTP until the listener fails or Stop is called.
func (g *Gateway) Start() error {
	log.Printf("helpdesk API listening on %s", g.server.Addr)
	return g.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	log.Printf("stopping helpdesk API")
	return g.server.Shutdown(ctx)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, wrapped.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "message": message})
}
