// Package privilege defines the catalog of named action-pattern sets used by
// authorization. A privilege is an immutable compiled automaton over action
// names, tagged with the family (cluster or index) it belongs to. The catalog
// ships the predefined privileges, supports registering custom ones, and
// resolves lists of names (or raw action patterns) into a single unioned
// privilege. Privileges compare by automaton subset relation, not by name.
package privilege
