package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/tessera-data/warden/pkg/authz"
	"github.com/tessera-data/warden/pkg/httputil"
	"github.com/tessera-data/warden/pkg/identity"
)

// AuthorizeRequest is the body of POST /api/v1/authorize: the identity the
// request executes as (omitted for node-internal actions) and the operation
// to check.
type AuthorizeRequest struct {
	User    *identity.User     `json:"user,omitempty"`
	Action  string             `json:"action"`
	Indices []string           `json:"indices,omitempty"`
	Subs    []authz.SubRequest `json:"subs,omitempty"`
}

// authorize handles POST /api/v1/authorize
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Action == "" {
		httputil.WriteBadRequest(w, "action is required")
		return
	}

	decision, err := s.authorizer.Authorize(r.Context(), req.User, authz.Request{
		Action:  req.Action,
		Indices: req.Indices,
		Subs:    req.Subs,
	})
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	// Denials are well-formed outcomes, not errors: the decision body says
	// granted=false and carries the reason.
	httputil.WriteSuccess(w, decision)
}

// ClearCacheRequest optionally names the roles to drop; an empty list clears
// the whole cache.
type ClearCacheRequest struct {
	Names []string `json:"names,omitempty"`
}

// ClearCacheResponse reports the cache population after the clear.
type ClearCacheResponse struct {
	Cleared bool `json:"cleared"`
	Cached  int  `json:"cached"`
}

// clearRoleCache handles POST /api/v1/cache/roles/clear
func (s *Server) clearRoleCache(w http.ResponseWriter, r *http.Request) {
	// An absent body means clear everything. EOF from the decoder covers
	// bodyless requests regardless of framing (Content-Length or chunked).
	var req ClearCacheRequest
	if err := httputil.ParseJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	s.cache.Invalidate(req.Names...)
	httputil.WriteSuccess(w, ClearCacheResponse{Cleared: true, Cached: s.cache.Len()})
}

// listRoles handles GET /api/v1/roles
func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	names := s.roles.Names()
	if names == nil {
		names = []string{}
	}
	httputil.WriteSuccess(w, map[string][]string{"roles": names})
}

// health handles GET /healthz
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}
