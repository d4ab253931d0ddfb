// Package store provides compiled-role caching and role descriptor sources.
//
// RoleCache memoizes descriptor-to-Role compilation, the most expensive step
// on the authorization path. It guarantees at most one concurrent build per
// role name, publishes immutable roles safely to concurrent readers, and
// supports explicit invalidation (per role or whole cache) driven by
// administrative requests or descriptor-source change notifications.
//
// Descriptor sources implement the role-storage collaborator contract:
// StaticSource holds descriptors in memory, FileStore reads a YAML roles
// file and watches it for changes.
package store
