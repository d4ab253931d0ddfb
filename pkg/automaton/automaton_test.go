package automaton

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wildcardRef is a straightforward recursive wildcard matcher used as a
// reference implementation for cross-checking the automaton.
func wildcardRef(pattern, s string) bool {
	p := []rune(pattern)
	in := []rune(s)
	var match func(pi, si int) bool
	match = func(pi, si int) bool {
		for pi < len(p) {
			switch {
			case p[pi] == '\\' && pi+1 < len(p):
				if si >= len(in) || in[si] != p[pi+1] {
					return false
				}
				pi += 2
				si++
			case p[pi] == '*':
				for k := si; k <= len(in); k++ {
					if match(pi+1, k) {
						return true
					}
				}
				return false
			case p[pi] == '?':
				if si >= len(in) {
					return false
				}
				pi++
				si++
			default:
				if si >= len(in) || in[si] != p[pi] {
					return false
				}
				pi++
				si++
			}
		}
		return si == len(in)
	}
	return match(0, 0)
}

func TestWildcardMatchesReference(t *testing.T) {
	patterns := []string{
		"*", "?", "", "foo", "foo*", "*foo", "f*o", "fo?", "?oo",
		"indices:data/read/*", "cluster:monitor/*", "logs-*", "a*b*c",
		`foo\*bar`, `\?`, `logs-\*-2024`,
	}
	inputs := []string{
		"", "f", "foo", "food", "xfoo", "fo", "fxo",
		"indices:data/read/search", "indices:data/write/index",
		"cluster:monitor/health", "logs-2024", "logs-", "a1b2c",
		"foo*bar", "fooxbar", "?", "x", "logs-*-2024", "logs-x-2024",
	}
	for _, p := range patterns {
		a, err := New(p)
		require.NoError(t, err, "pattern %q", p)
		for _, s := range inputs {
			assert.Equal(t, wildcardRef(p, s), a.Matches(s), "pattern %q input %q", p, s)
		}
	}
}

func TestRegexMatchesReference(t *testing.T) {
	exprs := []string{
		"foo.*", "(ab)+", "a|b", "[a-z]+", "log-[0-9]{4}", "a?b",
		"indices:(data|admin)/.*",
	}
	inputs := []string{
		"", "a", "b", "ab", "abab", "aab", "foo", "foobar",
		"log-2024", "log-24", "indices:data/read", "indices:admin/close",
	}
	for _, e := range exprs {
		a, err := New("/" + e + "/")
		require.NoError(t, err)
		ref := regexp.MustCompile("^(?:" + e + ")$")
		for _, s := range inputs {
			assert.Equal(t, ref.MatchString(s), a.Matches(s), "regex %q input %q", e, s)
		}
	}
}

func TestUnterminatedRegexRejected(t *testing.T) {
	for _, p := range []string{"/", "/foo", "/foo|bar"} {
		_, err := New(p)
		require.Error(t, err, "pattern %q", p)
		var perr *InvalidPatternError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Reason, "closing")
	}
}

func TestMalformedRegexRejected(t *testing.T) {
	_, err := New("/foo(/")
	require.Error(t, err)
	var perr *InvalidPatternError
	assert.ErrorAs(t, err, &perr)
}

func TestTrailingEscapeRejected(t *testing.T) {
	_, err := New(`foo\`)
	require.Error(t, err)
}

func TestStateLimit(t *testing.T) {
	// Matching "a" fifteen characters from the end needs 2^15 DFA states.
	_, err := compile("/(a|b)*a(a|b){15}/", 200)
	require.Error(t, err)
	var perr *InvalidPatternError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "states")
}

func TestUnionProperty(t *testing.T) {
	p1, err := New("indices:data/read/*")
	require.NoError(t, err)
	p2, err := New("cluster:monitor/*")
	require.NoError(t, err)
	u, err := Union(p1, p2)
	require.NoError(t, err)

	inputs := []string{
		"indices:data/read/get", "cluster:monitor/health",
		"indices:data/write/index", "cluster:admin/reroute", "",
	}
	for _, s := range inputs {
		assert.Equal(t, p1.Matches(s) || p2.Matches(s), u.Matches(s), "input %q", s)
	}
}

func TestPatternsUnionsMixedSyntax(t *testing.T) {
	a, err := Patterns("logs-*", "/metrics-[0-9]+/")
	require.NoError(t, err)
	assert.True(t, a.Matches("logs-2024"))
	assert.True(t, a.Matches("metrics-42"))
	assert.False(t, a.Matches("metrics-"))
	assert.False(t, a.Matches("traces-1"))
}

func TestEscapedWildcardRoundTrip(t *testing.T) {
	// An index literally named "logs-*" must not become a wildcard.
	a, err := New(`logs-\*`)
	require.NoError(t, err)
	assert.True(t, a.Matches("logs-*"))
	assert.False(t, a.Matches("logs-2024"))
}

func TestTotality(t *testing.T) {
	all, err := New("*")
	require.NoError(t, err)
	assert.True(t, all.IsTotal())
	assert.True(t, MatchAll.IsTotal())
	assert.False(t, MatchNone.IsTotal())
	assert.True(t, MatchNone.IsEmpty())

	some, err := New("foo*")
	require.NoError(t, err)
	assert.False(t, some.IsTotal())
	assert.False(t, some.IsEmpty())
}

func TestSubsetOf(t *testing.T) {
	read, err := New("indices:data/read/*")
	require.NoError(t, err)
	get, err := New("indices:data/read/get*")
	require.NoError(t, err)
	write, err := New("indices:data/write/*")
	require.NoError(t, err)
	all, err := New("*")
	require.NoError(t, err)

	assert.True(t, get.SubsetOf(read))
	assert.False(t, read.SubsetOf(get))
	assert.False(t, write.SubsetOf(read))
	assert.True(t, read.SubsetOf(all))
	assert.True(t, MatchNone.SubsetOf(read))
	assert.False(t, all.SubsetOf(read))
	assert.True(t, all.SubsetOf(MatchAll))
}

func TestUnionOfNone(t *testing.T) {
	u, err := Union()
	require.NoError(t, err)
	assert.True(t, u.IsEmpty())
}

func TestLongInputNoBacktracking(t *testing.T) {
	a, err := New("a*b*c")
	require.NoError(t, err)
	long := strings.Repeat("ab", 5000) + "c"
	assert.True(t, a.Matches(long))
}
