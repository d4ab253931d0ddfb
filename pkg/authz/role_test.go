package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-data/warden/pkg/automaton"
)

func TestNewRole(t *testing.T) {
	role, err := NewRole(RoleDescriptor{
		Name:    "reader",
		Cluster: []string{"monitor"},
		Indices: []IndicesGroupDescriptor{
			{Patterns: []string{"logs-*"}, Actions: []string{"read"}},
		},
		RunAs: []string{"svc-*"},
	})
	require.NoError(t, err)

	assert.Equal(t, "reader", role.Name())
	assert.True(t, role.ClusterPrivilege().Matches("cluster:monitor/health"))
	assert.False(t, role.ClusterPrivilege().Matches("cluster:admin/settings/update"))
	require.Len(t, role.Groups(), 1)
	assert.True(t, role.Groups()[0].Check("indices:data/read/search", "logs-2024"))
	assert.False(t, role.Groups()[0].Check("indices:data/read/search", "metrics-2024"))
	assert.True(t, role.CanRunAs("svc-ingest"))
	assert.False(t, role.CanRunAs("admin"))
}

func TestNewRoleDefaultsRunAsToNone(t *testing.T) {
	role, err := NewRole(RoleDescriptor{
		Name:    "minimal",
		Cluster: []string{"none"},
	})
	require.NoError(t, err)
	assert.False(t, role.CanRunAs("anyone"))
	assert.False(t, role.CanRunAs(""))
}

func TestNewRoleInvalidDescriptors(t *testing.T) {
	tests := []struct {
		name string
		desc RoleDescriptor
	}{
		{
			name: "missing name",
			desc: RoleDescriptor{Cluster: []string{"all"}},
		},
		{
			name: "unknown cluster privilege",
			desc: RoleDescriptor{Name: "r", Cluster: []string{"no-such-privilege"}},
		},
		{
			name: "group without patterns",
			desc: RoleDescriptor{Name: "r", Indices: []IndicesGroupDescriptor{
				{Actions: []string{"read"}},
			}},
		},
		{
			name: "group without actions",
			desc: RoleDescriptor{Name: "r", Indices: []IndicesGroupDescriptor{
				{Patterns: []string{"logs-*"}},
			}},
		},
		{
			name: "bad index regex",
			desc: RoleDescriptor{Name: "r", Indices: []IndicesGroupDescriptor{
				{Patterns: []string{"/logs-(/"}, Actions: []string{"read"}},
			}},
		},
		{
			name: "bad field pattern",
			desc: RoleDescriptor{Name: "r", Indices: []IndicesGroupDescriptor{
				{Patterns: []string{"logs-*"}, Actions: []string{"read"}, Fields: []string{"msg\\"}},
			}},
		},
		{
			name: "bad run-as pattern",
			desc: RoleDescriptor{Name: "r", RunAs: []string{"/svc-[/"}},
		},
		{
			name: "action outside index namespace",
			desc: RoleDescriptor{Name: "r", Indices: []IndicesGroupDescriptor{
				{Patterns: []string{"logs-*"}, Actions: []string{"cluster:monitor/*"}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRole(tt.desc)
			require.Error(t, err)
			var invalid *RoleDescriptorInvalidError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestNewRoleRejectsInvalidFieldListAsWhole(t *testing.T) {
	// One bad pattern fails the whole role, there is no partial compile.
	_, err := NewRole(RoleDescriptor{
		Name: "partial",
		Indices: []IndicesGroupDescriptor{
			{Patterns: []string{"logs-*"}, Actions: []string{"read"}, Fields: []string{"message", "/bad[/"}},
		},
	})
	var invalid *RoleDescriptorInvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "partial", invalid.Role)
	var pattern *automaton.InvalidPatternError
	assert.True(t, errors.As(err, &pattern))
}

func TestSystemRole(t *testing.T) {
	assert.Equal(t, SystemRoleName, SystemRole.Name())
	assert.True(t, SystemRole.ClusterPrivilege().Matches("internal:whatever/task"))
	assert.True(t, SystemRole.ClusterPrivilege().Matches("cluster:monitor/health"))
	assert.False(t, SystemRole.ClusterPrivilege().Matches("indices:data/write/index"))
	assert.False(t, SystemRole.CanRunAs("anyone"))

	require.Len(t, SystemRole.Groups(), 1)
	g := SystemRole.Groups()[0]
	assert.True(t, g.Check("internal:shard/recovery", "any-index"))
	assert.True(t, g.Check("indices:monitor/stats", "any-index"))
	assert.False(t, g.Check("indices:data/read/search", "any-index"))
}

func TestMergeEmptyFailsClosed(t *testing.T) {
	perm, err := Merge()
	require.NoError(t, err)
	assert.False(t, perm.AllowsClusterAction("cluster:monitor/health"))
	assert.False(t, perm.CanRunAs("anyone"))
	acl := perm.AuthorizeIndices("indices:data/read/search", []string{"logs-2024"})
	assert.False(t, acl.Granted)
}

func TestMergeUnionsFacets(t *testing.T) {
	monitor, err := NewRole(RoleDescriptor{Name: "monitor", Cluster: []string{"monitor"}, RunAs: []string{"svc-a"}})
	require.NoError(t, err)
	manage, err := NewRole(RoleDescriptor{Name: "manage", Cluster: []string{"manage"}, RunAs: []string{"svc-b"}})
	require.NoError(t, err)

	perm, err := Merge(monitor, manage)
	require.NoError(t, err)
	assert.Equal(t, []string{"monitor", "manage"}, perm.RoleNames())
	assert.True(t, perm.AllowsClusterAction("cluster:monitor/health"))
	assert.True(t, perm.AllowsClusterAction("cluster:admin/settings/update"))
	assert.True(t, perm.CanRunAs("svc-a"))
	assert.True(t, perm.CanRunAs("svc-b"))
	assert.False(t, perm.CanRunAs("svc-c"))
}

func TestAllowedIndicesMatcher(t *testing.T) {
	role, err := NewRole(RoleDescriptor{
		Name: "mixed",
		Indices: []IndicesGroupDescriptor{
			{Patterns: []string{"logs-*"}, Actions: []string{"read"}},
			{Patterns: []string{"metrics-*"}, Actions: []string{"write"}},
		},
	})
	require.NoError(t, err)
	perm, err := Merge(role)
	require.NoError(t, err)

	m, err := perm.AllowedIndicesMatcher("indices:data/read/search")
	require.NoError(t, err)
	assert.True(t, m.Matches("logs-2099"), "patterns cover indices that do not exist yet")
	assert.False(t, m.Matches("metrics-2024"))

	m, err = perm.AllowedIndicesMatcher("cluster:monitor/health")
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}
