package authz

import (
	"fmt"
	"strings"
)

// RoleDescriptorInvalidError reports a structurally invalid role descriptor,
// typically wrapping the InvalidPatternError of the offending pattern. It is
// a configuration-time failure surfaced to whoever registers the role.
type RoleDescriptorInvalidError struct {
	Role string
	Err  error
}

func (e *RoleDescriptorInvalidError) Error() string {
	return fmt.Sprintf("invalid role descriptor [%s]: %v", e.Role, e.Err)
}

func (e *RoleDescriptorInvalidError) Unwrap() error { return e.Err }

// DeniedError is the normal negative outcome of authorization: no privilege
// or group grants the requested action. It is not a system fault.
type DeniedError struct {
	Username string
	Action   string
	Indices  []string // denied indices; empty for cluster-level denials
}

func (e *DeniedError) Error() string {
	if len(e.Indices) == 0 {
		return fmt.Sprintf("action [%s] is unauthorized for user [%s]", e.Action, e.Username)
	}
	return fmt.Sprintf("action [%s] is unauthorized for user [%s] on indices [%s]",
		e.Action, e.Username, strings.Join(e.Indices, ","))
}

// CompositeDeniedError reports which sub-operations of a composite request
// were denied. At least one denial fails the whole composite, but every
// sub-operation is still resolved and reported so the caller can apply
// partial-failure semantics.
type CompositeDeniedError struct {
	Denials []*DeniedError
}

func (e *CompositeDeniedError) Error() string {
	parts := make([]string, len(e.Denials))
	for i, d := range e.Denials {
		parts[i] = d.Error()
	}
	return fmt.Sprintf("%d of composite sub-requests denied: %s",
		len(e.Denials), strings.Join(parts, "; "))
}
