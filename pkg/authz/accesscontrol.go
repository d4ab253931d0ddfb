package authz

// IndexAccessControl is the access decision for one concrete index within a
// request: whether it is granted, which fields may be returned, and which
// document filters apply.
type IndexAccessControl struct {
	Granted bool `json:"granted"`
	// Fields is the effective field allow-list; nil means unrestricted.
	Fields *FieldPermissions `json:"-"`
	// Queries are document filters to combine by logical OR: a document is
	// visible if it matches at least one. nil means unrestricted.
	Queries []string `json:"queries,omitempty"`
}

// FieldsRestricted reports whether the index carries a field allow-list.
func (c IndexAccessControl) FieldsRestricted() bool { return c.Fields != nil }

// DocumentsRestricted reports whether the index carries document filters.
func (c IndexAccessControl) DocumentsRestricted() bool { return len(c.Queries) > 0 }

// IndicesAccessControl is the per-request decision across every concrete
// index the request targets. It is built fresh per request and never cached
// beyond the request's lifetime.
type IndicesAccessControl struct {
	// Granted is true only when every targeted index is granted.
	Granted bool `json:"granted"`
	Indices map[string]IndexAccessControl `json:"indices"`
}

// DeniedIndices returns the indices that were denied, in request order as
// preserved by the caller's index list.
func (c *IndicesAccessControl) DeniedIndices(requested []string) []string {
	var denied []string
	for _, index := range requested {
		if !c.Indices[index].Granted {
			denied = append(denied, index)
		}
	}
	return denied
}

// HasFieldRestrictions reports whether any granted index carries a field
// allow-list. The field-security interceptor uses this to disable request
// features that could leak restricted field contents.
func (c *IndicesAccessControl) HasFieldRestrictions() bool {
	for _, ic := range c.Indices {
		if ic.Granted && ic.FieldsRestricted() {
			return true
		}
	}
	return false
}
