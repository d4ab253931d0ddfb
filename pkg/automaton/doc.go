// Package automaton compiles wildcard and regex patterns into deterministic
// finite automata over rune ranges.
//
// Patterns use `*` (zero or more runes) and `?` (exactly one rune) wildcard
// syntax, with `\` escaping a literal wildcard character. A pattern wrapped in
// `/.../` is compiled as a regular expression instead. Compiled automata
// support matching, union, emptiness/totality checks, and a subset relation,
// which higher layers use for privilege subsumption.
//
// Determinization is bounded: a pattern whose DFA would exceed the configured
// state limit is rejected at compile time with InvalidPatternError rather than
// consuming unbounded memory.
package automaton
