package automaton

import (
	"fmt"
	"regexp/syntax"
	"sort"
	"strings"
	"unicode"
)

// InvalidPatternError reports a pattern that cannot be compiled: malformed
// syntax, an unterminated /regex/ delimiter, or a pattern whose determinized
// form exceeds the state limit.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

// maxRepeat caps counted regex repetitions so {n,m} cannot explode the NFA.
const maxRepeat = 1000

// New compiles a single wildcard or /regex/ pattern.
func New(pattern string) (*Automaton, error) {
	return compile(pattern, DefaultMaxDeterminizedStates)
}

// Patterns compiles one or more patterns and unions them into a single
// automaton for single-pass matching.
func Patterns(patterns ...string) (*Automaton, error) {
	if len(patterns) == 0 {
		return MatchNone, nil
	}
	n := &nfa{}
	start := n.addState()
	for _, p := range patterns {
		frag, err := patternNFA(p)
		if err != nil {
			return nil, err
		}
		base := n.merge(frag)
		n.addEps(start, base)
	}
	d, err := n.determinize(DefaultMaxDeterminizedStates)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: strings.Join(patterns, ","), Reason: err.Error()}
	}
	return d, nil
}

func compile(pattern string, limit int) (*Automaton, error) {
	n, err := patternNFA(pattern)
	if err != nil {
		return nil, err
	}
	d, err := n.determinize(limit)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: err.Error()}
	}
	return d, nil
}

func patternNFA(pattern string) (*nfa, error) {
	if strings.HasPrefix(pattern, "/") {
		if len(pattern) < 2 || !strings.HasSuffix(pattern, "/") {
			return nil, &InvalidPatternError{Pattern: pattern, Reason: "missing closing '/' on regex pattern"}
		}
		return regexNFA(pattern, pattern[1:len(pattern)-1])
	}
	return wildcardNFA(pattern)
}

// 	nfa is a nondeterministic automaton under construction. State 0 is the
// start state of a finished fragment.
type nfa struct {
	states []nfaState
}

type nfaState struct {
	edges  []edge
	eps    []int
	accept bool
}

func (n *nfa) addState() int {
	n.states = append(n.states, nfaState{})
	return len(n.states) - 1
}

func (n *nfa) addEdge(from int, lo, hi rune, to int) {
	n.states[from].edges = append(n.states[from].edges, edge{lo: lo, hi: hi, to: to})
}

func (n *nfa) addEps(from, to int) {
	n.states[from].eps = append(n.states[from].eps, to)
}

// merge copies other's states into n and returns the offset of other's start.
func (n *nfa) merge(other *nfa) int {
	base := len(n.states)
	for _, s := range other.states {
		ns := nfaState{accept: s.accept}
		for _, e := range s.edges {
			ns.edges = append(ns.edges, edge{lo: e.lo, hi: e.hi, to: e.to + base})
		}
		for _, t := range s.eps {
			ns.eps = append(ns.eps, t+base)
		}
		n.states = append(n.states, ns)
	}
	return base
}

func wildcardNFA(pattern string) (*nfa, error) {
	n := &nfa{}
	cur := n.addState()
	escaped := false
	for _, r := range pattern {
		if escaped {
			next := n.addState()
			n.addEdge(cur, r, r, next)
			cur = next
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*':
			n.addEdge(cur, 0, unicode.MaxRune, cur)
		case '?':
			next := n.addState()
			n.addEdge(cur, 0, unicode.MaxRune, next)
			cur = next
		default:
			next := n.addState()
			n.addEdge(cur, r, r, next)
			cur = next
		}
	}
	if escaped {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: "trailing escape character"}
	}
	n.states[cur].accept = true
	return n, nil
}

func regexNFA(pattern, expr string) (*nfa, error) {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: err.Error()}
	}
	re = re.Simplify()
	n := &nfa{}
	start := n.addState()
	end, err := buildRegexFragment(n, re, start)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Reason: err.Error()}
	}
	n.states[end].accept = true
	return n, nil
}

// buildRegexFragment translates a parsed regex subtree into NFA states
// starting at from, returning the fragment's exit state. Matching is always
// against the whole input, so text anchors are treated as empty matches.
func buildRegexFragment(n *nfa, re *syntax.Regexp, from int) (int, error) {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpBeginLine, syntax.OpEndLine:
		return from, nil

	case syntax.OpNoMatch:
		return n.addState(), nil

	case syntax.OpLiteral:
		cur := from
		for _, r := range re.Rune {
			next := n.addState()
			n.addEdge(cur, r, r, next)
			if re.Flags&syntax.FoldCase != 0 {
				for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
					n.addEdge(cur, f, f, next)
				}
			}
			cur = next
		}
		return cur, nil

	case syntax.OpCharClass:
		next := n.addState()
		for i := 0; i+1 < len(re.Rune); i += 2 {
			n.addEdge(from, re.Rune[i], re.Rune[i+1], next)
		}
		return next, nil

	case syntax.OpAnyChar:
		next := n.addState()
		n.addEdge(from, 0, unicode.MaxRune, next)
		return next, nil

	case syntax.OpAnyCharNotNL:
		next := n.addState()
		n.addEdge(from, 0, '\n'-1, next)
		n.addEdge(from, '\n'+1, unicode.MaxRune, next)
		return next, nil

	case syntax.OpConcat:
		cur := from
		for _, sub := range re.Sub {
			next, err := buildRegexFragment(n, sub, cur)
			if err != nil {
				return 0, err
			}
			cur = next
		}
		return cur, nil

	case syntax.OpAlternate:
		end := n.addState()
		for _, sub := range re.Sub {
			subEnd, err := buildRegexFragment(n, sub, from)
			if err != nil {
				return 0, err
			}
			n.addEps(subEnd, end)
		}
		return end, nil

	case syntax.OpStar:
		hub := n.addState()
		n.addEps(from, hub)
		bodyEnd, err := buildRegexFragment(n, re.Sub[0], hub)
		if err != nil {
			return 0, err
		}
		n.addEps(bodyEnd, hub)
		return hub, nil

	case syntax.OpPlus:
		bodyStart := n.addState()
		n.addEps(from, bodyStart)
		bodyEnd, err := buildRegexFragment(n, re.Sub[0], bodyStart)
		if err != nil {
			return 0, err
		}
		n.addEps(bodyEnd, bodyStart)
		return bodyEnd, nil

	case syntax.OpQuest:
		end, err := buildRegexFragment(n, re.Sub[0], from)
		if err != nil {
			return 0, err
		}
		n.addEps(from, end)
		return end, nil

	case syntax.OpRepeat:
		min, max := re.Min, re.Max
		if min > maxRepeat || max > maxRepeat {
			return 0, fmt.Errorf("repetition count exceeds %d", maxRepeat)
		}
		cur := from
		for i := 0; i < min; i++ {
			next, err := buildRegexFragment(n, re.Sub[0], cur)
			if err != nil {
				return 0, err
			}
			cur = next
		}
		if max < 0 {
			star := *re
			star.Op = syntax.OpStar
			return buildRegexFragment(n, &star, cur)
		}
		end := n.addState()
		n.addEps(cur, end)
		for i := min; i < max; i++ {
			next, err := buildRegexFragment(n, re.Sub[0], cur)
			if err != nil {
				return 0, err
			}
			n.addEps(next, end)
			cur = next
		}
		return end, nil

	case syntax.OpCapture:
		return buildRegexFragment(n, re.Sub[0], from)

	default:
		return 0, fmt.Errorf("unsupported regex construct %v", re.Op)
	}
}

// determinize performs subset construction with a hard state limit.
func (n *nfa) determinize(limit int) (*Automaton, error) {
	startSet := n.closure([]int{0})
	ids := map[string]int{setKey(startSet): 0}
	order := [][]int{startSet}
	var trans [][]edge
	var accept []bool

	for qi := 0; qi < len(order); qi++ {
		set := order[qi]
		accept = append(accept, n.anyAccept(set))

		// Split the rune space at every boundary used by an outgoing edge
		// of any member state, then resolve each interval to a target set.
		var points []rune
		for _, s := range set {
			for _, e := range n.states[s].edges {
				points = append(points, e.lo)
				if e.hi < unicode.MaxRune {
					points = append(points, e.hi+1)
				}
			}
		}
		sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
		points = dedupRunes(points)

		var out []edge
		for pi, lo := range points {
			hi := unicode.MaxRune
			if pi+1 < len(points) {
				hi = points[pi+1] - 1
			}
			var heads []int
			for _, s := range set {
				for _, e := range n.states[s].edges {
					if e.lo <= lo && lo <= e.hi {
						heads = append(heads, e.to)
					}
				}
			}
			if len(heads) == 0 {
				continue
			}
			target := n.closure(heads)
			key := setKey(target)
			id, ok := ids[key]
			if !ok {
				id = len(order)
				if id >= limit {
					return nil, fmt.Errorf("determinization requires more than %d states", limit)
				}
				ids[key] = id
				order = append(order, target)
			}
			if len(out) > 0 && out[len(out)-1].to == id && out[len(out)-1].hi+1 == lo {
				out[len(out)-1].hi = hi
			} else {
				out = append(out, edge{lo: lo, hi: hi, to: id})
			}
		}
		trans = append(trans, out)
	}
	return &Automaton{trans: trans, accept: accept}, nil
}

// closure returns the sorted epsilon closure of the given states.
func (n *nfa) closure(states []int) []int {
	seen := make(map[int]bool, len(states))
	stack := append([]int(nil), states...)
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[s] {
			continue
		}
		seen[s] = true
		stack = append(stack, n.states[s].eps...)
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

func (n *nfa) anyAccept(states []int) bool {
	for _, s := range states {
		if n.states[s].accept {
			return true
		}
	}
	return false
}

func setKey(states []int) string {
	var b strings.Builder
	for _, s := range states {
		fmt.Fprintf(&b, "%d,", s)
	}
	return b.String()
}

func dedupRunes(rs []rune) []rune {
	out := rs[:0]
	for i, r := range rs {
		if i == 0 || r != rs[i-1] {
			out = append(out, r)
		}
	}
	return out
}
