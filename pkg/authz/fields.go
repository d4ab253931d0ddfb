package authz

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tessera-data/warden/pkg/automaton"
)

// FieldPermissions is a compiled allow-list of field-name patterns. A nil
// *FieldPermissions everywhere in this package means "unrestricted".
type FieldPermissions struct {
	patterns []string
	matcher  *automaton.Automaton
}

// Grants reports whether the named field is in the allow-list.
func (f *FieldPermissions) Grants(field string) bool {
	return f.matcher.Matches(field)
}

// Patterns returns the field-name patterns the allow-list was built from.
func (f *FieldPermissions) Patterns() []string { return f.patterns }

// fieldPermissionsCacheSize bounds the shared compiled-field-pattern cache.
// Field lists repeat heavily across roles and groups, and compiling them is
// the expensive determinization step, so they are memoized globally.
const fieldPermissionsCacheSize = 1024

var fieldPermissionsCache, _ = lru.New[string, *FieldPermissions](fieldPermissionsCacheSize)

// compileFieldPermissions compiles a field pattern allow-list, returning nil
// when the list grants every field (which is equivalent to no restriction).
func compileFieldPermissions(patterns []string) (*FieldPermissions, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	normalized := append([]string(nil), patterns...)
	sort.Strings(normalized)
	normalized = dedupStrings(normalized)
	key := strings.Join(normalized, "\x00")

	if f, ok := fieldPermissionsCache.Get(key); ok {
		return f, nil
	}
	m, err := automaton.Patterns(normalized...)
	if err != nil {
		return nil, err
	}
	var f *FieldPermissions
	if !m.IsTotal() {
		f = &FieldPermissions{patterns: normalized, matcher: m}
	}
	fieldPermissionsCache.Add(key, f)
	return f, nil
}

func dedupStrings(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
