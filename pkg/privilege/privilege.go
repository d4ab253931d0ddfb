package privilege

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tessera-data/warden/pkg/automaton"
)

// Family identifies which action namespace a privilege governs.
type Family int

const (
	// Cluster privileges cover cluster-wide actions with no index target.
	Cluster Family = iota
	// Index privileges cover actions executed against specific indices.
	Index
	// System is the reserved family for the internal action namespace; it has
	// a single privilege and no registry.
	System
)

func (f Family) String() string {
	switch f {
	case Cluster:
		return "cluster"
	case Index:
		return "index"
	case System:
		return "system"
	default:
		return "unknown"
	}
}

// InternalActionPrefix is the reserved namespace for node-internal follow-up
// actions. Only the system privilege grants it.
const InternalActionPrefix = "internal:"

// IsInternalAction reports whether action belongs to the reserved internal
// namespace.
func IsInternalAction(action string) bool {
	return strings.HasPrefix(action, InternalActionPrefix)
}

// subActionSuffix extends a raw action grant to its bracketed sub-actions,
// so granting "indices:data/write/index" also grants
// "indices:data/write/index[p]" and deeper fan-out variants.
const subActionSuffix = "[*"

// Privilege is an immutable named set of action patterns compiled into one
// automaton. The name may be a comma-joined set when built from a union.
type Privilege struct {
	family   Family
	name     string
	patterns []string
	matcher  *automaton.Automaton
}

// Name returns the privilege name, e.g. "read" or "monitor,read" for unions.
func (p *Privilege) Name() string { return p.name }

// Family returns the action namespace family this privilege governs.
func (p *Privilege) Family() Family { return p.family }

// Patterns returns the raw patterns the privilege was built from.
func (p *Privilege) Patterns() []string { return p.patterns }

// Matcher exposes the compiled automaton for composition by permission
// holders (group action matchers, allowed-indices matchers).
func (p *Privilege) Matcher() *automaton.Automaton { return p.matcher }

// Matches reports whether the privilege grants the given action.
func (p *Privilege) Matches(action string) bool {
	return p.matcher.Matches(action)
}

// Implies reports whether every action granted by other is also granted by p.
func (p *Privilege) Implies(other *Privilege) bool {
	return other.matcher.SubsetOf(p.matcher)
}

// IsNone reports whether the privilege grants no action at all.
func (p *Privilege) IsNone() bool {
	return p.matcher.IsEmpty()
}

func newPrivilege(f Family, name string, matcher *automaton.Automaton, patterns ...string) *Privilege {
	return &Privilege{family: f, name: name, patterns: patterns, matcher: matcher}
}

func mustBuiltin(f Family, name string, patterns ...string) *Privilege {
	m, err := automaton.Patterns(patterns...)
	if err != nil {
		panic(fmt.Sprintf("builtin privilege %s/%s: %v", f, name, err))
	}
	return newPrivilege(f, name, m, patterns...)
}

// Predefined cluster privileges.
var (
	ClusterNone    = newPrivilege(Cluster, "none", automaton.MatchNone)
	ClusterAll     = mustBuiltin(Cluster, "all", "cluster:*", "indices:admin/template/*")
	ClusterMonitor = mustBuiltin(Cluster, "monitor", "cluster:monitor/*")
	ClusterManage  = mustBuiltin(Cluster, "manage",
		"cluster:admin/*", "cluster:monitor/*", "indices:admin/template/*")

	// ClusterTransportClient covers the handshake actions a remote transport
	// client needs to connect and sniff the cluster.
	ClusterTransportClient = mustBuiltin(Cluster, "transport_client",
		"cluster:monitor/nodes/liveness", "cluster:monitor/state")
)

// Predefined index privileges.
var (
	IndexNone    = newPrivilege(Index, "none", automaton.MatchNone)
	IndexAll     = mustBuiltin(Index, "all", "indices:*")
	IndexRead    = mustBuiltin(Index, "read", "indices:data/read/*")
	IndexWrite   = mustBuiltin(Index, "write", "indices:data/write/*")
	IndexIndex   = mustBuiltin(Index, "index",
		"indices:data/write/index*", "indices:data/write/update*", "indices:data/write/bulk*")
	IndexCreate  = mustBuiltin(Index, "create",
		"indices:data/write/index*", "indices:data/write/bulk*")
	IndexDelete  = mustBuiltin(Index, "delete", "indices:data/write/delete*")
	IndexSearch  = mustBuiltin(Index, "search",
		"indices:data/read/search*", "indices:data/read/msearch*", "indices:data/read/suggest*")
	IndexGet     = mustBuiltin(Index, "get",
		"indices:data/read/get*", "indices:data/read/mget*")
	IndexMonitor = mustBuiltin(Index, "monitor", "indices:monitor/*")
	IndexManage  = mustBuiltin(Index, "manage", "indices:monitor/*", "indices:admin/*")

	IndexCreateIndex = mustBuiltin(Index, "create_index", "indices:admin/create")
	IndexDeleteIndex = mustBuiltin(Index, "delete_index", "indices:admin/delete")

	IndexViewMetadata = mustBuiltin(Index, "view_index_metadata",
		"indices:admin/aliases/get*", "indices:admin/mappings/get*",
		"indices:admin/settings/get*", "indices:monitor/settings/get*")
)

// SystemPrivilege grants the internal namespace plus the handful of normal
// actions a node legitimately performs as a side effect of internal work.
var SystemPrivilege = mustBuiltin(System, "__system",
	"internal:*",
	"indices:monitor/*",
	"cluster:monitor/*",
	"cluster:admin/reroute",
	"indices:admin/mapping/put",
)

// Union merges privileges of the same family into a single privilege whose
// automaton accepts any action accepted by at least one input. The resulting
// name is the comma-joined sorted set of the input names.
func Union(ps ...*Privilege) (*Privilege, error) {
	switch len(ps) {
	case 0:
		return nil, fmt.Errorf("union of zero privileges")
	case 1:
		return ps[0], nil
	}
	family := ps[0].family
	nameSet := make(map[string]struct{}, len(ps))
	parts := make([]*automaton.Automaton, 0, len(ps))
	for _, p := range ps {
		if p.family != family {
			return nil, fmt.Errorf("cannot union %s privilege %q with %s privilege %q",
				family, ps[0].name, p.family, p.name)
		}
		for _, n := range strings.Split(p.name, ",") {
			nameSet[n] = struct{}{}
		}
		parts = append(parts, p.matcher)
	}
	m, err := automaton.Union(parts...)
	if err != nil {
		return nil, err
	}
	if len(nameSet) > 1 {
		delete(nameSet, "none")
	}
	names := make([]string, 0, len(nameSet))
	for n := range nameSet {
		names = append(names, n)
	}
	sort.Strings(names)
	return newPrivilege(family, strings.Join(names, ","), m, names...), nil
}

type registry struct {
	family Family
	all    *Privilege
	none   *Privilege

	mu     sync.RWMutex
	byName map[string]*Privilege
	unions map[string]*Privilege
}

func newRegistry(f Family, none, all *Privilege, builtins ...*Privilege) *registry {
	r := &registry{
		family: f,
		all:    all,
		none:   none,
		byName: make(map[string]*Privilege),
		unions: make(map[string]*Privilege),
	}
	r.byName[none.name] = none
	r.byName[all.name] = all
	for _, p := range builtins {
		r.byName[p.name] = p
	}
	return r
}

var registries = map[Family]*registry{
	Cluster: newRegistry(Cluster, ClusterNone, ClusterAll, ClusterMonitor, ClusterManage,
		ClusterTransportClient),
	Index: newRegistry(Index, IndexNone, IndexAll,
		IndexRead, IndexWrite, IndexIndex, IndexCreate, IndexDelete, IndexSearch,
		IndexGet, IndexMonitor, IndexManage, IndexCreateIndex, IndexDeleteIndex,
		IndexViewMetadata),
}

// None returns the privilege of the given family that grants nothing.
func None(f Family) *Privilege { return registries[f].none }

// All returns the privilege of the given family that grants every action in
// the family's namespace.
func All(f Family) *Privilege { return registries[f].all }

// Register adds a custom named privilege to the family's catalog. The name
// must be unused and every pattern must stay within the family's "all"
// automaton, so a misconfigured catalog entry cannot widen the namespace.
func Register(f Family, name string, patterns ...string) error {
	r, ok := registries[f]
	if !ok {
		return fmt.Errorf("privilege family %s has no registry", f)
	}
	m, err := automaton.Patterns(patterns...)
	if err != nil {
		return err
	}
	if !m.SubsetOf(r.all.matcher) {
		return fmt.Errorf("%s privilege %q: patterns %v are broader than the %q privilege",
			f, name, patterns, r.all.name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%s privilege %q already exists", f, name)
	}
	r.byName[name] = newPrivilege(f, name, m, patterns...)
	return nil
}

// Get resolves one or more privilege names into a single unioned privilege.
// A name not present in the catalog is treated as a raw action pattern and
// must fall within the family's "all" automaton. Resolved unions are cached.
func Get(f Family, names ...string) (*Privilege, error) {
	r, ok := registries[f]
	if !ok {
		return nil, fmt.Errorf("privilege family %s has no registry", f)
	}
	return r.get(names)
}

func (r *registry) get(names []string) (*Privilege, error) {
	filtered := names[:0:0]
	for _, n := range names {
		if n != r.none.name {
			filtered = append(filtered, n)
		}
	}
	if len(filtered) == 0 {
		return r.none, nil
	}
	sorted := append([]string(nil), filtered...)
	sort.Strings(sorted)
	key := strings.Join(sorted, ",")

	r.mu.RLock()
	if p, ok := r.unions[key]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	parts := make([]*automaton.Automaton, 0, len(sorted))
	for _, n := range sorted {
		p, err := r.resolveOne(n)
		if err != nil {
			return nil, err
		}
		if p == r.all {
			// "all" subsumes everything else in the set.
			return r.all, nil
		}
		parts = append(parts, p.matcher)
	}
	m, err := automaton.Union(parts...)
	if err != nil {
		return nil, err
	}
	p := newPrivilege(r.family, key, m, sorted...)
	r.mu.Lock()
	r.unions[key] = p
	r.mu.Unlock()
	return p, nil
}

func (r *registry) resolveOne(name string) (*Privilege, error) {
	r.mu.RLock()
	p, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}
	// Not a catalog name: treat it as an ad-hoc action pattern, extended to
	// bracketed sub-actions, and guard it against escaping the namespace.
	m, err := automaton.Patterns(name, name+subActionSuffix)
	if err != nil {
		return nil, err
	}
	if !m.SubsetOf(r.all.matcher) {
		return nil, fmt.Errorf("unknown %s privilege %q: not a registered privilege "+
			"and not an action pattern within the %s namespace", r.family, name, r.family)
	}
	return newPrivilege(r.family, name, m, name), nil
}
