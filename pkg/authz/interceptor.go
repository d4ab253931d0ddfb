package authz

import (
	"github.com/sirupsen/logrus"
)

// SearchRequest models the request features the field-security interceptor
// can disable. It is a projection of the request-routing collaborator's
// search request, not a full query representation.
type SearchRequest struct {
	Indices []string

	// Per-field features that can surface raw field contents regardless of
	// the granted field list.
	HighlightFields []string
	StoredFields    []string
	DocValueFields  []string

	// RequestCache, when nil, follows the cluster default. The interceptor
	// forces it off under field restrictions: cached entries are keyed by
	// request, not by identity, and could leak across differently-restricted
	// users.
	RequestCache *bool
}

// FieldSecurityInterceptor disables request features that could leak
// restricted field contents indirectly. It runs after access resolution and
// is advisory-disable only: it never turns a denial into a grant, and it
// leaves requests against unrestricted indices untouched.
type FieldSecurityInterceptor struct {
	log *logrus.Logger
}

// NewFieldSecurityInterceptor creates a field-security interceptor.
func NewFieldSecurityInterceptor(log *logrus.Logger) *FieldSecurityInterceptor {
	if log == nil {
		log = logrus.New()
	}
	return &FieldSecurityInterceptor{log: log}
}

// Intercept rewrites req in place when any targeted index carries a field
// allow-list: per-field projections outside the granted list are dropped and
// the request cache is forced off.
func (i *FieldSecurityInterceptor) Intercept(req *SearchRequest, acl *IndicesAccessControl) {
	if req == nil || acl == nil || !acl.HasFieldRestrictions() {
		return
	}

	allowed := func(field string) bool {
		for _, index := range req.Indices {
			ic := acl.Indices[index]
			if ic.Granted && ic.FieldsRestricted() && !ic.Fields.Grants(field) {
				return false
			}
		}
		return true
	}

	req.HighlightFields = filterFields(req.HighlightFields, allowed)
	req.StoredFields = filterFields(req.StoredFields, allowed)
	req.DocValueFields = filterFields(req.DocValueFields, allowed)

	off := false
	req.RequestCache = &off

	i.log.WithField("indices", req.Indices).
		Debug("field-level security active, disabled request cache and filtered field projections")
}

func filterFields(fields []string, allowed func(string) bool) []string {
	if len(fields) == 0 {
		return fields
	}
	kept := fields[:0]
	for _, f := range fields {
		if allowed(f) {
			kept = append(kept, f)
		}
	}
	return kept
}
