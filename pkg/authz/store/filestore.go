package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tessera-data/warden/pkg/authz"
)

// FileStore reads role descriptors from a YAML file keyed by role name:
//
//	reader:
//	  cluster: ["monitor"]
//	  indices:
//	    - patterns: ["logs-*"]
//	      actions: ["read"]
//	      fields: ["message", "@timestamp"]
//
// Watch reloads the file when it changes and notifies registered listeners
// with the names of added, removed, or modified roles, so a RoleCache can be
// invalidated precisely.
type FileStore struct {
	path string
	log  *logrus.Logger

	mu          sync.RWMutex
	descriptors map[string]authz.RoleDescriptor
	listeners   []func(names []string)
}

// NewFileStore loads the roles file. A missing file is not an error: the
// store starts empty and picks the file up if it appears while watching.
func NewFileStore(path string, log *logrus.Logger) (*FileStore, error) {
	if log == nil {
		log = logrus.New()
	}
	s := &FileStore{path: path, log: log}
	descriptors, err := parseRolesFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", path).Warn("roles file does not exist, starting with no roles")
			s.descriptors = make(map[string]authz.RoleDescriptor)
			return s, nil
		}
		return nil, err
	}
	s.descriptors = descriptors
	log.WithFields(logrus.Fields{"path": path, "roles": len(descriptors)}).Info("loaded roles file")
	return s, nil
}

// RoleDescriptors implements DescriptorSource.
func (s *FileStore) RoleDescriptors(_ context.Context, names []string) (map[string]authz.RoleDescriptor, error) {
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

// Names returns the names of all roles currently defined in the file.
func (s *FileStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.descriptors))
	for name := range s.descriptors {
		names = append(names, name)
	}
	return names
}

// OnChange registers a listener invoked with the names of changed roles
// after each successful reload.
func (s *FileStore) OnChange(fn func(names []string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Watch blocks, reloading the roles file whenever it changes, until ctx is
// done. The parent directory is watched rather than the file itself so that
// editors and config-management tools that replace the file atomically are
// still observed.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating roles file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watching roles file directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			s.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.WithError(err).Warn("roles file watcher error")
		}
	}
}

// reload re-parses the file and notifies listeners of changed roles. A file
// that fails to parse keeps the previous descriptors, so a half-written
// roles file cannot wipe permissions.
func (s *FileStore) reload() {
	descriptors, err := parseRolesFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			descriptors = make(map[string]authz.RoleDescriptor)
		} else {
			s.log.WithField("path", s.path).WithError(err).Error("failed to reload roles file, keeping previous roles")
			return
		}
	}

	s.mu.Lock()
	changed := diffDescriptors(s.descriptors, descriptors)
	s.descriptors = descriptors
	listeners := append([]func(names []string){}, s.listeners...)
	s.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	s.log.WithFields(logrus.Fields{"path": s.path, "changed": changed}).Info("roles file changed")
	for _, fn := range listeners {
		fn(changed)
	}
}

func parseRolesFile(path string) (map[string]authz.RoleDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]authz.RoleDescriptor
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing roles file %s: %w", path, err)
	}
	descriptors := make(map[string]authz.RoleDescriptor, len(raw))
	for name, d := range raw {
		if name == authz.SystemRoleName {
			return nil, fmt.Errorf("role name %q is reserved", name)
		}
		d.Name = name
		descriptors[name] = d
	}
	return descriptors, nil
}

func diffDescriptors(before, after map[string]authz.RoleDescriptor) []string {
	var changed []string
	for name, d := range after {
		if prev, ok := before[name]; !ok || !reflect.DeepEqual(prev, d) {
			changed = append(changed, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			changed = append(changed, name)
		}
	}
	return changed
}
