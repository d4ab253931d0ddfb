// Package authz implements the authorization core: roles compiled from
// descriptors, composition of permissions across an identity's roles, and
// per-request resolution of access decisions including field-level and
// document-level restrictions.
//
// The package is organized around three layers:
//
//   - Role: an immutable bundle of cluster, index-scoped, and run-as
//     permissions compiled from a RoleDescriptor.
//   - EffectivePermission: the union of all roles assigned to an identity,
//     produced by Merge. Cluster privileges union, indices groups concatenate,
//     run-as patterns union.
//   - Resolution: Resolve and ResolveComposite compute per-index
//     IndicesAccessControl decisions for a requested action. Resolution is a
//     pure in-memory computation with no I/O, safe to run inline on the
//     request path.
//
// Combination rules: field permissions combine most-permissive (any
// unrestricted group makes the index unrestricted); document filters combine
// by logical OR; an index with no applicable group is denied independently of
// its siblings.
package authz
