package security

import (
	"context"

	"github.com/tessera-data/warden/pkg/identity"
	"github.com/tessera-data/warden/pkg/privilege"
)

// ShouldSubstituteSystemIdentity decides whether the given action should
// execute as the system identity instead of the identity currently attached
// to ctx. Substitution happens only for actions in the internal namespace,
// and only when one of the following holds:
//
//   - no identity is attached to the execution context yet,
//   - the attached identity is already the system identity, or
//   - the action that originally triggered this unit of work was itself not
//     internal (a user action legitimately spawning an internal follow-up).
//
// An internal action triggered by another internal action keeps the already
// attached identity, so a long internal chain can never escalate into a fresh
// system substitution.
func ShouldSubstituteSystemIdentity(ctx context.Context, action string) bool {
	if !privilege.IsInternalAction(action) {
		return false
	}
	user := IdentityFrom(ctx)
	if user == nil || identity.IsSystem(user) {
		return true
	}
	originating := OriginatingAction(ctx)
	return originating != "" && !privilege.IsInternalAction(originating)
}

// SubstituteSystemIdentity applies the policy: when substitution is called
// for, it returns a context carrying the system identity, otherwise the
// context is returned unchanged.
func SubstituteSystemIdentity(ctx context.Context, action string) context.Context {
	if ShouldSubstituteSystemIdentity(ctx, action) {
		return WithIdentity(ctx, identity.System)
	}
	return ctx
}
