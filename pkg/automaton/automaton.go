package automaton

import (
	"sort"
	"unicode"
)

// DefaultMaxDeterminizedStates bounds subset construction. Patterns that
// would determinize into more states than this are rejected at compile time.
const DefaultMaxDeterminizedStates = 10000

// edge is a DFA transition on the inclusive rune range [lo, hi].
type edge struct {
	lo, hi rune
	to     int
}

// Automaton is a deterministic finite automaton over runes. State 0 is the
// start state. Missing transitions are implicit rejection. Automata are
// immutable once built and safe for concurrent use.
type Automaton struct {
	trans  [][]edge
	accept []bool
}

// MatchNone matches no string at all.
var MatchNone = &Automaton{trans: [][]edge{nil}, accept: []bool{false}}

// MatchAll matches every string, including the empty string.
var MatchAll = &Automaton{
	trans:  [][]edge{{{lo: 0, hi: unicode.MaxRune, to: 0}}},
	accept: []bool{true},
}

// Matches reports whether the automaton accepts s. It is deterministic and
// side-effect free.
func (a *Automaton) Matches(s string) bool {
	state := 0
	for _, r := range s {
		next, ok := a.step(state, r)
		if !ok {
			return false
		}
		state = next
	}
	return a.accept[state]
}

func (a *Automaton) step(state int, r rune) (int, bool) {
	edges := a.trans[state]
	i := sort.Search(len(edges), func(i int) bool { return edges[i].hi >= r })
	if i < len(edges) && edges[i].lo <= r {
		return edges[i].to, true
	}
	return 0, false
}

// IsEmpty reports whether the automaton accepts no string.
func (a *Automaton) IsEmpty() bool {
	seen := make([]bool, len(a.trans))
	stack := []int{0}
	seen[0] = true
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if a.accept[s] {
			return false
		}
		for _, e := range a.trans[s] {
			if !seen[e.to] {
				seen[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return true
}

// IsTotal reports whether the automaton accepts every string.
func (a *Automaton) IsTotal() bool {
	return a.complement().IsEmpty()
}

// SubsetOf reports whether every string accepted by a is also accepted by b.
func (a *Automaton) SubsetOf(b *Automaton) bool {
	return a.intersect(b.complement()).IsEmpty()
}

// Union merges several automata into one that accepts any string accepted by
// at least one input. The merged automaton is re-determinized and subject to
// the default state limit.
func Union(as ...*Automaton) (*Automaton, error) {
	switch len(as) {
	case 0:
		return MatchNone, nil
	case 1:
		return as[0], nil
	}
	n := &nfa{}
	start := n.addState()
	for _, a := range as {
		base := len(n.states)
		for i := range a.trans {
			n.addState()
			n.states[base+i].accept = a.accept[i]
			for _, e := range a.trans[i] {
				n.addEdge(base+i, e.lo, e.hi, base+e.to)
			}
		}
		n.addEps(start, base)
	}
	d, err := n.determinize(DefaultMaxDeterminizedStates)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: "<union>", Reason: err.Error()}
	}
	return d, nil
}

// complement returns an automaton accepting exactly the strings a rejects.
func (a *Automaton) complement() *Automaton {
	c := a.complete()
	accept := make([]bool, len(c.accept))
	for i, acc := range c.accept {
		accept[i] = !acc
	}
	return &Automaton{trans: c.trans, accept: accept}
}

// complete returns an equivalent automaton whose transition function is total,
// adding a sink state where needed.
func (a *Automaton) complete() *Automaton {
	sink := len(a.trans)
	needSink := false
	trans := make([][]edge, len(a.trans), len(a.trans)+1)
	for i, edges := range a.trans {
		var out []edge
		next := rune(0)
		for _, e := range edges {
			if e.lo > next {
				out = append(out, edge{lo: next, hi: e.lo - 1, to: sink})
				needSink = true
			}
			out = append(out, e)
			next = e.hi + 1
		}
		if next <= unicode.MaxRune {
			out = append(out, edge{lo: next, hi: unicode.MaxRune, to: sink})
			needSink = true
		}
		trans[i] = out
	}
	accept := append([]bool(nil), a.accept...)
	if needSink {
		trans = append(trans, []edge{{lo: 0, hi: unicode.MaxRune, to: sink}})
		accept = append(accept, false)
	}
	return &Automaton{trans: trans, accept: accept}
}

// intersect builds the product automaton of a and b.
func (a *Automaton) intersect(b *Automaton) *Automaton {
	type pair struct{ i, j int }
	ids := map[pair]int{{0, 0}: 0}
	order := []pair{{0, 0}}
	var trans [][]edge
	var accept []bool
	for qi := 0; qi < len(order); qi++ {
		p := order[qi]
		var out []edge
		for _, ea := range a.trans[p.i] {
			for _, eb := range b.trans[p.j] {
				lo, hi := ea.lo, ea.hi
				if eb.lo > lo {
					lo = eb.lo
				}
				if eb.hi < hi {
					hi = eb.hi
				}
				if lo > hi {
					continue
				}
				np := pair{ea.to, eb.to}
				id, ok := ids[np]
				if !ok {
					id = len(order)
					ids[np] = id
					order = append(order, np)
				}
				out = append(out, edge{lo: lo, hi: hi, to: id})
			}
		}
		sort.Slice(out, func(x, y int) bool { return out[x].lo < out[y].lo })
		trans = append(trans, out)
		accept = append(accept, a.accept[p.i] && b.accept[p.j])
	}
	return &Automaton{trans: trans, accept: accept}
}
