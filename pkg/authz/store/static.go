package store

import (
	"context"
	"sync"

	"github.com/tessera-data/warden/pkg/authz"
)

// StaticSource is an in-memory descriptor source. It is the natural adapter
// for role-storage collaborators that push descriptors to the node, and for
// tests.
type StaticSource struct {
	mu          sync.RWMutex
	descriptors map[string]authz.RoleDescriptor
}

// NewStaticSource creates a source holding the given descriptors.
func NewStaticSource(descriptors ...authz.RoleDescriptor) *StaticSource {
	s := &StaticSource{descriptors: make(map[string]authz.RoleDescriptor, len(descriptors))}
	for _, d := range descriptors {
		s.descriptors[d.Name] = d
	}
	return s
}

// Put adds or replaces a descriptor. The caller is responsible for
// invalidating any cache built over this source.
func (s *StaticSource) Put(d authz.RoleDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors[d.Name] = d
}

// Delete removes a descriptor by name.
func (s *StaticSource) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.descriptors, name)
}

// RoleDescriptors implements DescriptorSource.
func (s *StaticSource) RoleDescriptors(_ context.Context, names []string) (map[string]authz.RoleDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]authz.RoleDescriptor, len(names))
	for _, name := range names {
		if d, ok := s.descriptors[name]; ok {
			out[name] = d
		}
	}
	return out, nil
}
