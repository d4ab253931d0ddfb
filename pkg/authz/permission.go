package authz

import (
	"fmt"

	"github.com/tessera-data/warden/pkg/automaton"
	"github.com/tessera-data/warden/pkg/privilege"
)

// Group is one index-pattern-scoped grant within a role: an automaton over
// index names, an automaton over action names, and optional field and
// document restrictions.
type Group struct {
	indexPatterns []string
	indexMatcher  *automaton.Automaton
	actions       *privilege.Privilege
	fields        *FieldPermissions // nil = unrestricted
	query         string            // "" = unrestricted
}

func newGroup(d IndicesGroupDescriptor) (Group, error) {
	if len(d.Patterns) == 0 {
		return Group{}, fmt.Errorf("at least one index pattern is required")
	}
	if len(d.Actions) == 0 {
		return Group{}, fmt.Errorf("at least one action is required")
	}
	indexMatcher, err := automaton.Patterns(d.Patterns...)
	if err != nil {
		return Group{}, err
	}
	actions, err := privilege.Get(privilege.Index, d.Actions...)
	if err != nil {
		return Group{}, err
	}
	fields, err := compileFieldPermissions(d.Fields)
	if err != nil {
		return Group{}, err
	}
	return Group{
		indexPatterns: d.Patterns,
		indexMatcher:  indexMatcher,
		actions:       actions,
		fields:        fields,
		query:         d.Query,
	}, nil
}

// IndexPatterns returns the raw index-name patterns this group covers.
func (g *Group) IndexPatterns() []string { return g.indexPatterns }

// Check reports whether this group grants the action on the concrete index.
func (g *Group) Check(action, index string) bool {
	return g.actions.Matches(action) && g.indexMatcher.Matches(index)
}

// EffectivePermission is the union of every role assigned to an identity:
// cluster privileges union into one, indices groups concatenate (duplicates
// are harmless since resolution is a union test), and run-as patterns union.
type EffectivePermission struct {
	roleNames []string
	cluster   *privilege.Privilege
	groups    []Group
	runAs     *automaton.Automaton
}

// Merge composes the given roles into one effective permission. Merging no
// roles yields a permission that grants nothing (fails closed).
func Merge(roles ...*Role) (*EffectivePermission, error) {
	names := make([]string, 0, len(roles))
	clusterParts := make([]*privilege.Privilege, 0, len(roles)+1)
	clusterParts = append(clusterParts, privilege.None(privilege.Cluster))
	var groups []Group
	runAsParts := make([]*automaton.Automaton, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.name)
		clusterParts = append(clusterParts, r.cluster)
		groups = append(groups, r.groups...)
		runAsParts = append(runAsParts, r.runAs)
	}
	cluster, err := privilege.Union(clusterParts...)
	if err != nil {
		return nil, fmt.Errorf("merging cluster privileges of roles %v: %w", names, err)
	}
	runAs, err := automaton.Union(runAsParts...)
	if err != nil {
		return nil, fmt.Errorf("merging run-as permissions of roles %v: %w", names, err)
	}
	return &EffectivePermission{
		roleNames: names,
		cluster:   cluster,
		groups:    groups,
		runAs:     runAs,
	}, nil
}

// RoleNames returns the names of the roles this permission was merged from.
func (p *EffectivePermission) RoleNames() []string { return p.roleNames }

// AllowsClusterAction reports whether the merged cluster privilege grants the
// action.
func (p *EffectivePermission) AllowsClusterAction(action string) bool {
	return p.cluster.Matches(action)
}

// CanRunAs reports whether any role in the union permits impersonating the
// given username.
func (p *EffectivePermission) CanRunAs(username string) bool {
	return p.runAs.Matches(username)
}

// AllowedIndicesMatcher returns an automaton matching every index name on
// which this permission grants the given action, including index patterns
// covering indices that do not exist yet.
func (p *EffectivePermission) AllowedIndicesMatcher(action string) (*automaton.Automaton, error) {
	var parts []*automaton.Automaton
	for i := range p.groups {
		if p.groups[i].actions.Matches(action) {
			parts = append(parts, p.groups[i].indexMatcher)
		}
	}
	return automaton.Union(parts...)
}
