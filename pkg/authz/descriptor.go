package authz

// RoleDescriptor is the wire/storage form of a role, as delivered by the
// role-storage collaborator. Building a Role from a descriptor is a pure
// function; a changed descriptor produces a new Role instance.
type RoleDescriptor struct {
	Name    string                   `json:"name" yaml:"-"`
	Cluster []string                 `json:"cluster,omitempty" yaml:"cluster"`
	Indices []IndicesGroupDescriptor `json:"indices,omitempty" yaml:"indices"`
	RunAs   []string                 `json:"run_as,omitempty" yaml:"run_as"`
}

// IndicesGroupDescriptor declares one index-pattern-scoped grant within a
// role: which index names it covers, which actions (named privileges or raw
// action patterns) it grants, and optional field and document restrictions.
type IndicesGroupDescriptor struct {
	Patterns []string `json:"patterns" yaml:"patterns"`
	Actions  []string `json:"actions" yaml:"actions"`
	// Fields is an allow-list of field-name patterns. nil means the group
	// imposes no field restriction.
	Fields []string `json:"fields,omitempty" yaml:"fields"`
	// Query is an opaque document filter (serialized query) applied to
	// otherwise-accessible documents. Empty means no document restriction.
	Query string `json:"query,omitempty" yaml:"query"`
}
