package authz

// Resolution is the outcome of resolving one action against an effective
// permission: the cluster-level decision and, for index-scoped actions, the
// per-index access control.
type Resolution struct {
	ClusterAllowed bool
	Indices        *IndicesAccessControl
}

// SubRequest is one sub-operation of a composite request, e.g. one write of
// a bulk targeting its own indices.
type SubRequest struct {
	Action  string   `json:"action"`
	Indices []string `json:"indices"`
}

// Resolve computes the access decision for one action against the effective
// permission. It is pure and non-blocking: no I/O, no shared mutable state.
// Cluster actions are decided by the merged cluster privilege; index-scoped
// actions produce a per-index IndicesAccessControl.
func Resolve(perm *EffectivePermission, action string, indices []string) Resolution {
	res := Resolution{ClusterAllowed: perm.AllowsClusterAction(action)}
	if len(indices) > 0 {
		res.Indices = perm.AuthorizeIndices(action, indices)
	}
	return res
}

// AuthorizeIndices computes the per-index decision for an index-scoped
// action. Every group whose index pattern matches the concrete index and
// whose granted actions match the requested action contributes; restrictions
// combine most-permissively (any unrestricted group lifts the restriction),
// and an index with no matching group is denied independently of the others.
func (p *EffectivePermission) AuthorizeIndices(action string, indices []string) *IndicesAccessControl {
	acl := &IndicesAccessControl{
		Granted: true,
		Indices: make(map[string]IndexAccessControl, len(indices)),
	}
	for _, index := range indices {
		ic := p.authorizeIndex(action, index)
		if !ic.Granted {
			acl.Granted = false
		}
		acl.Indices[index] = ic
	}
	return acl
}

func (p *EffectivePermission) authorizeIndex(action, index string) IndexAccessControl {
	var (
		granted          bool
		fieldsUnlimited  bool
		fieldPatterns    []string
		queriesUnlimited bool
		queries          []string
		seenQueries      map[string]struct{}
	)
	for i := range p.groups {
		g := &p.groups[i]
		if !g.Check(action, index) {
			continue
		}
		granted = true
		if g.fields == nil {
			fieldsUnlimited = true
		} else if !fieldsUnlimited {
			fieldPatterns = append(fieldPatterns, g.fields.patterns...)
		}
		if g.query == "" {
			queriesUnlimited = true
		} else if !queriesUnlimited {
			if seenQueries == nil {
				seenQueries = make(map[string]struct{})
			}
			if _, dup := seenQueries[g.query]; !dup {
				seenQueries[g.query] = struct{}{}
				queries = append(queries, g.query)
			}
		}
	}
	if !granted {
		return IndexAccessControl{}
	}
	ic := IndexAccessControl{Granted: true}
	if !fieldsUnlimited {
		// The union of allow-lists was already validated pattern by pattern
		// when the contributing groups were built, so recompiling the merged
		// list cannot fail; a failure here still denies rather than grants.
		fields, err := compileFieldPermissions(fieldPatterns)
		if err != nil {
			return IndexAccessControl{}
		}
		ic.Fields = fields
	}
	if !queriesUnlimited {
		ic.Queries = queries
	}
	return ic
}

// ResolveComposite resolves each sub-operation of a composite request
// independently against the same effective permission. Every sub-operation is
// resolved and returned; if at least one is denied, a CompositeDeniedError
// naming each denied sub-target is returned alongside the results, and the
// caller must fail the composite rather than partially execute it.
func ResolveComposite(perm *EffectivePermission, username string, subs []SubRequest) ([]*IndicesAccessControl, error) {
	results := make([]*IndicesAccessControl, len(subs))
	var denials []*DeniedError
	for i, sub := range subs {
		acl := perm.AuthorizeIndices(sub.Action, sub.Indices)
		results[i] = acl
		if !acl.Granted {
			denials = append(denials, &DeniedError{
				Username: username,
				Action:   sub.Action,
				Indices:  acl.DeniedIndices(sub.Indices),
			})
		}
	}
	if len(denials) > 0 {
		return results, &CompositeDeniedError{Denials: denials}
	}
	return results, nil
}
