package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/tessera-data/warden/pkg/authz"
	"github.com/tessera-data/warden/pkg/httputil"
	"github.com/tessera-data/warden/pkg/identity"
	"github.com/tessera-data/warden/pkg/observability"
)

// Authorizer computes access decisions for authorization requests.
type Authorizer interface {
	Authorize(ctx context.Context, user *identity.User, req authz.Request) (*authz.Decision, error)
}

// RoleCache is the cache-management surface the admin API exposes.
type RoleCache interface {
	Invalidate(names ...string)
	Len() int
}

// RoleLister enumerates the role names currently defined in storage.
type RoleLister interface {
	Names() []string
}

// Server represents the admin API server
type Server struct {
	authorizer Authorizer
	cache      RoleCache
	roles      RoleLister
	log        *logrus.Logger
	metrics    *observability.Metrics
	router     *mux.Router
}

// NewServer creates a new admin API server
func NewServer(authorizer Authorizer, cache RoleCache, roles RoleLister, log *logrus.Logger, metrics *observability.Metrics) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{
		authorizer: authorizer,
		cache:      cache,
		roles:      roles,
		log:        log,
		metrics:    metrics,
		router:     mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/v1/authorize", s.authorize).Methods("POST")
	s.router.HandleFunc("/api/v1/cache/roles/clear", s.clearRoleCache).Methods("POST")
	s.router.HandleFunc("/api/v1/roles", s.listRoles).Methods("GET")
	s.router.HandleFunc("/healthz", s.health).Methods("GET")

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

// Handler returns the server's handler with the standard middleware applied
func (s *Server) Handler() http.Handler {
	return httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.log),
		httputil.RecoveryMiddleware(s.log),
		httputil.MetricsMiddleware(s.metrics),
		httputil.MaxBytesMiddleware(1024*1024),
	)(s.router)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
