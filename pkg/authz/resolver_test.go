package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRole(t *testing.T, d RoleDescriptor) *Role {
	t.Helper()
	r, err := NewRole(d)
	require.NoError(t, err)
	return r
}

func mustMerge(t *testing.T, roles ...*Role) *EffectivePermission {
	t.Helper()
	p, err := Merge(roles...)
	require.NoError(t, err)
	return p
}

func readerRole(t *testing.T) *Role {
	return mustRole(t, RoleDescriptor{
		Name: "reader",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"logs-*"},
			Actions:  []string{"read"},
			Fields:   []string{"message", "@timestamp"},
		}},
	})
}

func adminRole(t *testing.T) *Role {
	return mustRole(t, RoleDescriptor{
		Name:    "admin",
		Cluster: []string{"all"},
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"*"},
			Actions:  []string{"all"},
		}},
	})
}

func TestResolveClusterAction(t *testing.T) {
	perm := mustMerge(t, mustRole(t, RoleDescriptor{Name: "m", Cluster: []string{"monitor"}}))

	res := Resolve(perm, "cluster:monitor/health", nil)
	assert.True(t, res.ClusterAllowed)
	assert.Nil(t, res.Indices)

	res = Resolve(perm, "cluster:admin/reroute", nil)
	assert.False(t, res.ClusterAllowed)
}

func TestReaderDeniedWrite(t *testing.T) {
	perm := mustMerge(t, readerRole(t))

	acl := perm.AuthorizeIndices("indices:data/write/index", []string{"logs-2024"})
	assert.False(t, acl.Granted)
	assert.Equal(t, []string{"logs-2024"}, acl.DeniedIndices([]string{"logs-2024"}))
}

func TestReaderGrantedReadWithFieldRestrictions(t *testing.T) {
	perm := mustMerge(t, readerRole(t))

	acl := perm.AuthorizeIndices("indices:data/read/search", []string{"logs-2024"})
	require.True(t, acl.Granted)
	ic := acl.Indices["logs-2024"]
	require.True(t, ic.FieldsRestricted())
	assert.True(t, ic.Fields.Grants("message"))
	assert.True(t, ic.Fields.Grants("@timestamp"))
	assert.False(t, ic.Fields.Grants("user.ssn"))
	assert.False(t, ic.DocumentsRestricted())
}

func TestUnrestrictedGroupLiftsFieldRestriction(t *testing.T) {
	perm := mustMerge(t, readerRole(t), adminRole(t))

	acl := perm.AuthorizeIndices("indices:data/read/search", []string{"logs-2024"})
	require.True(t, acl.Granted)
	ic := acl.Indices["logs-2024"]
	assert.False(t, ic.FieldsRestricted(), "any unrestricted group lifts the field allow-list")
	assert.False(t, ic.DocumentsRestricted())
	assert.False(t, acl.HasFieldRestrictions())
}

func TestFieldUnionAcrossGroups(t *testing.T) {
	a := mustRole(t, RoleDescriptor{
		Name: "a",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"logs-*"}, Actions: []string{"read"}, Fields: []string{"message"},
		}},
	})
	b := mustRole(t, RoleDescriptor{
		Name: "b",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"logs-*"}, Actions: []string{"read"}, Fields: []string{"host.*"},
		}},
	})
	perm := mustMerge(t, a, b)

	ic := perm.AuthorizeIndices("indices:data/read/search", []string{"logs-1"}).Indices["logs-1"]
	require.True(t, ic.FieldsRestricted())
	assert.True(t, ic.Fields.Grants("message"))
	assert.True(t, ic.Fields.Grants("host.name"))
	assert.False(t, ic.Fields.Grants("user.ssn"))
}

func TestDocumentFiltersCombineByOr(t *testing.T) {
	a := mustRole(t, RoleDescriptor{
		Name: "a",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"logs-*"}, Actions: []string{"read"}, Query: `{"term":{"team":"a"}}`,
		}},
	})
	b := mustRole(t, RoleDescriptor{
		Name: "b",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"logs-*"}, Actions: []string{"read"}, Query: `{"term":{"team":"b"}}`,
		}},
	})
	dup := mustRole(t, RoleDescriptor{
		Name: "dup",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"logs-*"}, Actions: []string{"read"}, Query: `{"term":{"team":"a"}}`,
		}},
	})
	perm := mustMerge(t, a, b, dup)

	ic := perm.AuthorizeIndices("indices:data/read/search", []string{"logs-1"}).Indices["logs-1"]
	require.True(t, ic.DocumentsRestricted())
	assert.Equal(t, []string{`{"term":{"team":"a"}}`, `{"term":{"team":"b"}}`}, ic.Queries)
}

func TestNoFilterGroupLiftsDocumentRestriction(t *testing.T) {
	filtered := mustRole(t, RoleDescriptor{
		Name: "filtered",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"logs-*"}, Actions: []string{"read"}, Query: `{"term":{"team":"a"}}`,
		}},
	})
	open := mustRole(t, RoleDescriptor{
		Name: "open",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"logs-*"}, Actions: []string{"read"},
		}},
	})
	perm := mustMerge(t, filtered, open)

	ic := perm.AuthorizeIndices("indices:data/read/search", []string{"logs-1"}).Indices["logs-1"]
	assert.False(t, ic.DocumentsRestricted())
}

func TestPerIndexIndependentDenial(t *testing.T) {
	perm := mustMerge(t, readerRole(t))

	acl := perm.AuthorizeIndices("indices:data/read/search", []string{"logs-2024", "secrets"})
	assert.False(t, acl.Granted)
	assert.True(t, acl.Indices["logs-2024"].Granted)
	assert.False(t, acl.Indices["secrets"].Granted)
	assert.Equal(t, []string{"secrets"}, acl.DeniedIndices([]string{"logs-2024", "secrets"}))
}

func TestResolveCompositePartialDenial(t *testing.T) {
	perm := mustMerge(t, mustRole(t, RoleDescriptor{
		Name: "writer",
		Indices: []IndicesGroupDescriptor{{
			Patterns: []string{"public-*"}, Actions: []string{"write"},
		}},
	}))

	subs := []SubRequest{
		{Action: "indices:data/write/index", Indices: []string{"public-logs"}},
		{Action: "indices:data/write/index", Indices: []string{"secret-logs"}},
	}
	results, err := ResolveComposite(perm, "bob", subs)
	require.Len(t, results, 2, "every sub-operation is still resolved")
	assert.True(t, results[0].Granted)
	assert.False(t, results[1].Granted)

	var composite *CompositeDeniedError
	require.ErrorAs(t, err, &composite)
	require.Len(t, composite.Denials, 1)
	assert.Equal(t, "indices:data/write/index", composite.Denials[0].Action)
	assert.Equal(t, []string{"secret-logs"}, composite.Denials[0].Indices)
	assert.Equal(t, "bob", composite.Denials[0].Username)
}

func TestResolveCompositeAllGranted(t *testing.T) {
	perm := mustMerge(t, adminRole(t))

	results, err := ResolveComposite(perm, "alice", []SubRequest{
		{Action: "indices:data/write/index", Indices: []string{"a"}},
		{Action: "indices:data/read/get", Indices: []string{"b", "c"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Granted)
	assert.True(t, results[1].Granted)
}

func TestDeniedErrorMessages(t *testing.T) {
	cluster := &DeniedError{Username: "bob", Action: "cluster:admin/reroute"}
	assert.Equal(t, "action [cluster:admin/reroute] is unauthorized for user [bob]", cluster.Error())

	idx := &DeniedError{Username: "bob", Action: "indices:data/read/search", Indices: []string{"a", "b"}}
	assert.Equal(t, "action [indices:data/read/search] is unauthorized for user [bob] on indices [a,b]", idx.Error())

	composite := &CompositeDeniedError{Denials: []*DeniedError{cluster}}
	var target *CompositeDeniedError
	assert.True(t, errors.As(composite, &target))
}
