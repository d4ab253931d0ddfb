// Package security carries per-request security state through
// context.Context: the identity the request executes as and the action that
// originally triggered the current unit of work. Both values propagate to
// every sub-unit of work spawned by the request, which keeps the
// internal-action chain check consistent across fan-out.
//
// The package also implements the system-identity policy: deciding, for
// actions in the reserved internal namespace, whether the acting identity is
// transparently replaced by the privileged system identity.
package security
