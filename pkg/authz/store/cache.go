package store

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/tessera-data/warden/pkg/authz"
	"github.com/tessera-data/warden/pkg/observability"
)

// DescriptorSource delivers role descriptors by name. Names with no
// descriptor are simply absent from the result; an error means the source
// itself failed.
type DescriptorSource interface {
	RoleDescriptors(ctx context.Context, names []string) (map[string]authz.RoleDescriptor, error)
}

// RoleCache memoizes compiled roles by name. Reads are lock-free beyond a
// shared RWMutex read lock; a miss builds the role at most once across
// concurrent callers. Invalidation is generation-tracked so a build that
// races with an invalidation can never publish a stale role.
type RoleCache struct {
	source  DescriptorSource
	log     *logrus.Logger
	metrics *observability.Metrics

	mu    sync.RWMutex
	roles map[string]*authz.Role
	gens  map[string]uint64
	gen   uint64

	// group coalesces concurrent builds per role name. Guarded by mu: a full
	// invalidation replaces it wholesale so lookups starting afterwards can
	// never join a build that fetched pre-invalidation descriptors.
	group *singleflight.Group
}

// NewRoleCache creates a role cache over the given descriptor source.
func NewRoleCache(source DescriptorSource, log *logrus.Logger, metrics *observability.Metrics) *RoleCache {
	if log == nil {
		log = logrus.New()
	}
	return &RoleCache{
		source:  source,
		log:     log,
		metrics: metrics,
		roles:   make(map[string]*authz.Role),
		gens:    make(map[string]uint64),
		group:   new(singleflight.Group),
	}
}

// Roles resolves the named roles, compiling and caching on miss. Unknown
// names and names whose stored descriptor no longer compiles contribute no
// permissions: they are logged and skipped, never aborting resolution of the
// remaining valid roles.
func (c *RoleCache) Roles(ctx context.Context, names []string) ([]*authz.Role, error) {
	out := make([]*authz.Role, 0, len(names))
	for _, name := range names {
		role, err := c.role(ctx, name)
		if err != nil {
			return nil, err
		}
		if role == nil {
			c.log.WithField("role", name).Warn("unknown role, resolving to no permissions")
			if c.metrics != nil {
				c.metrics.UnknownRolesTotal.Inc()
			}
			continue
		}
		out = append(out, role)
	}
	return out, nil
}

func (c *RoleCache) role(ctx context.Context, name string) (*authz.Role, error) {
	c.mu.RLock()
	role, ok := c.roles[name]
	startGen, startNameGen := c.gen, c.gens[name]
	group := c.group
	c.mu.RUnlock()
	if ok {
		if c.metrics != nil {
			c.metrics.RoleCacheHitsTotal.Inc()
		}
		return role, nil
	}
	if c.metrics != nil {
		c.metrics.RoleCacheMissesTotal.Inc()
	}

	v, err, _ := group.Do(name, func() (interface{}, error) {
		// A concurrent builder may have published while we waited.
		c.mu.RLock()
		if role, ok := c.roles[name]; ok {
			c.mu.RUnlock()
			return role, nil
		}
		c.mu.RUnlock()

		role, err := c.build(ctx, name)
		if err != nil || role == nil {
			return nil, err
		}

		// Publish only if no invalidation happened since the lookup began;
		// otherwise the next lookup rebuilds from the current descriptor.
		c.mu.Lock()
		if c.gen == startGen && c.gens[name] == startNameGen {
			c.roles[name] = role
			c.setSizeLocked()
		}
		c.mu.Unlock()
		return role, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*authz.Role), nil
}

// build fetches and compiles one role. A missing descriptor or one that no
// longer compiles yields a nil role, not an error.
func (c *RoleCache) build(ctx context.Context, name string) (*authz.Role, error) {
	descriptors, err := c.source.RoleDescriptors(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	descriptor, ok := descriptors[name]
	if !ok {
		return nil, nil
	}
	start := time.Now()
	role, err := authz.NewRole(descriptor)
	if err != nil {
		c.log.WithField("role", name).WithError(err).Error("stored role descriptor failed to compile")
		if c.metrics != nil {
			c.metrics.RoleCompilationErrorsTotal.Inc()
		}
		return nil, nil
	}
	if c.metrics != nil {
		c.metrics.RoleCompilationDuration.Observe(time.Since(start).Seconds())
	}
	return role, nil
}

// Invalidate drops compiled roles by name; no names drops the whole cache.
// Invalidating an absent entry is a no-op, so the operation is idempotent.
func (c *RoleCache) Invalidate(names ...string) {
	c.mu.Lock()
	if len(names) == 0 {
		c.roles = make(map[string]*authz.Role)
		c.gen++
		// Replacing the whole group drops every in-flight build: a lookup
		// starting after this point builds fresh rather than joining a
		// flight that already fetched pre-invalidation descriptors.
		c.group = new(singleflight.Group)
	} else {
		for _, name := range names {
			delete(c.roles, name)
			c.gens[name]++
			c.group.Forget(name)
		}
	}
	c.setSizeLocked()
	c.mu.Unlock()
}

// Len returns the number of compiled roles currently cached.
func (c *RoleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.roles)
}

func (c *RoleCache) setSizeLocked() {
	if c.metrics != nil {
		c.metrics.RoleCacheSize.Set(float64(len(c.roles)))
	}
}
