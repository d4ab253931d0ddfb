package authz

import (
	"fmt"

	"github.com/tessera-data/warden/pkg/automaton"
	"github.com/tessera-data/warden/pkg/privilege"
)

// Role is a named, immutable bundle of three permission facets: cluster-level
// actions, index-scoped action groups, and run-as targets. Roles are safe for
// concurrent use; a changed descriptor produces a new Role, never a mutation.
type Role struct {
	name    string
	cluster *privilege.Privilege
	groups  []Group
	runAs   *automaton.Automaton
}

// Name returns the role name.
func (r *Role) Name() string { return r.name }

// ClusterPrivilege returns the role's merged cluster privilege.
func (r *Role) ClusterPrivilege() *privilege.Privilege { return r.cluster }

// Groups returns the role's index permission groups.
func (r *Role) Groups() []Group { return r.groups }

// CanRunAs reports whether the role permits impersonating the given username.
func (r *Role) CanRunAs(username string) bool {
	return r.runAs.Matches(username)
}

// NewRole compiles a role descriptor into an immutable Role. It is a pure
// function with no I/O. Any invalid pattern in the descriptor fails the whole
// role with RoleDescriptorInvalidError.
func NewRole(d RoleDescriptor) (*Role, error) {
	if d.Name == "" {
		return nil, &RoleDescriptorInvalidError{Role: d.Name, Err: fmt.Errorf("role name is required")}
	}

	cluster, err := privilege.Get(privilege.Cluster, d.Cluster...)
	if err != nil {
		return nil, &RoleDescriptorInvalidError{Role: d.Name, Err: err}
	}

	groups := make([]Group, 0, len(d.Indices))
	for i, gd := range d.Indices {
		g, err := newGroup(gd)
		if err != nil {
			return nil, &RoleDescriptorInvalidError{
				Role: d.Name,
				Err:  fmt.Errorf("indices group %d: %w", i, err),
			}
		}
		groups = append(groups, g)
	}

	runAs := automaton.MatchNone
	if len(d.RunAs) > 0 {
		runAs, err = automaton.Patterns(d.RunAs...)
		if err != nil {
			return nil, &RoleDescriptorInvalidError{Role: d.Name, Err: err}
		}
	}

	return &Role{name: d.Name, cluster: cluster, groups: groups, runAs: runAs}, nil
}

// SystemRoleName is reserved and cannot be assigned through descriptors.
const SystemRoleName = "__system"

// SystemRole grants exactly the reserved internal-action namespace (plus the
// few follow-up actions the system privilege covers) on every index, and
// nothing else. It is never composed with user roles; the system-identity
// policy is the only path that attaches it.
var SystemRole = &Role{
	name:    SystemRoleName,
	cluster: privilege.SystemPrivilege,
	groups: []Group{{
		indexPatterns: []string{"*"},
		indexMatcher:  automaton.MatchAll,
		actions:       privilege.SystemPrivilege,
	}},
	runAs: automaton.MatchNone,
}
