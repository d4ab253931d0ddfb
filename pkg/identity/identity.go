// Package identity defines the resolved identities authorization operates on:
// regular users with assigned role names, the optional run-as target attached
// to a request, and the reserved system user used for node-internal work.
package identity

// User is a resolved identity as delivered by the authentication layer.
// Users are immutable once resolved; RunAs, when set, is the identity the
// request should execute as, subject to the acting user's run-as permission.
type User struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	FullName string   `json:"full_name,omitempty"`

	RunAs *User `json:"run_as,omitempty"`
}

// Effective returns the identity the request ultimately executes as.
func (u *User) Effective() *User {
	if u.RunAs != nil {
		return u.RunAs
	}
	return u
}

// SystemUsername is reserved; the authentication layer rejects it for real
// users.
const SystemUsername = "_system"

// System is the privileged node-internal identity. It holds no role names:
// its permissions come exclusively from the reserved system role.
var System = &User{Username: SystemUsername}

// IsSystem reports whether u is the reserved system identity.
func IsSystem(u *User) bool {
	return u != nil && u.Username == SystemUsername
}

// AnonymousUsername names the identity attached to unauthenticated requests
// when the deployment allows them.
const AnonymousUsername = "_anonymous"

// Anonymous is the unauthenticated identity. It carries no roles by default;
// deployments grant it permissions by assigning roles at configuration time.
var Anonymous = &User{Username: AnonymousUsername}
