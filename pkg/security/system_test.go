package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tessera-data/warden/pkg/identity"
)

func TestSubstituteWhenNoIdentityAttached(t *testing.T) {
	ctx := context.Background()
	assert.True(t, ShouldSubstituteSystemIdentity(ctx, "internal:index/shard/state"))
}

func TestNoSubstituteForNonInternalAction(t *testing.T) {
	ctx := context.Background()
	assert.False(t, ShouldSubstituteSystemIdentity(ctx, "indices:data/read/get"))

	ctx = WithIdentity(ctx, &identity.User{Username: "alice"})
	assert.False(t, ShouldSubstituteSystemIdentity(ctx, "cluster:monitor/health"))
}

func TestSubstituteWhenAlreadySystem(t *testing.T) {
	ctx := WithIdentity(context.Background(), identity.System)
	assert.True(t, ShouldSubstituteSystemIdentity(ctx, "internal:gateway/local/started"))
}

func TestSubstituteForUserSpawnedInternalAction(t *testing.T) {
	// A normal user action spawns one internal follow-up: the follow-up runs
	// as system.
	ctx := WithIdentity(context.Background(), &identity.User{Username: "alice"})
	ctx = WithOriginatingAction(ctx, "indices:data/write/index")
	assert.True(t, ShouldSubstituteSystemIdentity(ctx, "internal:index/mapping/refresh"))
}

func TestNoSubstituteWhenChainIsInternal(t *testing.T) {
	// An internal action triggered by another internal action keeps the
	// attached identity; no second substitution.
	ctx := WithIdentity(context.Background(), &identity.User{Username: "alice"})
	ctx = WithOriginatingAction(ctx, "internal:index/shard/recovery")
	assert.False(t, ShouldSubstituteSystemIdentity(ctx, "internal:index/shard/started"))
}

func TestNoSubstituteWithoutOriginatingAction(t *testing.T) {
	// Identity attached but no recorded origin: fail closed, keep the user.
	ctx := WithIdentity(context.Background(), &identity.User{Username: "alice"})
	assert.False(t, ShouldSubstituteSystemIdentity(ctx, "internal:whatever"))
}

func TestOriginatingActionSetOnce(t *testing.T) {
	ctx := WithOriginatingAction(context.Background(), "indices:data/write/index")
	ctx = WithOriginatingAction(ctx, "internal:follow/up")
	assert.Equal(t, "indices:data/write/index", OriginatingAction(ctx))
}

func TestSubstituteSystemIdentityRewritesContext(t *testing.T) {
	ctx := WithOriginatingAction(context.Background(), "indices:data/write/index")
	ctx = WithIdentity(ctx, &identity.User{Username: "alice"})

	out := SubstituteSystemIdentity(ctx, "internal:index/mapping/refresh")
	assert.True(t, identity.IsSystem(IdentityFrom(out)))

	unchanged := SubstituteSystemIdentity(ctx, "indices:data/read/get")
	assert.Equal(t, "alice", IdentityFrom(unchanged).Username)
}
