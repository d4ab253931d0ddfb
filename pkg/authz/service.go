package authz

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tessera-data/warden/pkg/audit"
	"github.com/tessera-data/warden/pkg/identity"
	"github.com/tessera-data/warden/pkg/observability"
	"github.com/tessera-data/warden/pkg/security"
)

// RoleProvider resolves role names into compiled roles. Unknown names are
// skipped, not errors; an error return means the provider itself failed and
// the caller must fail closed.
type RoleProvider interface {
	Roles(ctx context.Context, names []string) ([]*Role, error)
}

// Request describes one operation to authorize: the action name, the
// concrete target indices (empty for cluster-wide actions), and for composite
// requests the individual sub-operations.
type Request struct {
	Action  string       `json:"action"`
	Indices []string     `json:"indices,omitempty"`
	Subs    []SubRequest `json:"subs,omitempty"`
}

// Decision is the outcome of authorizing one request.
type Decision struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason,omitempty"`

	// Indices holds the per-index decision for index-scoped requests.
	Indices *IndicesAccessControl `json:"indices,omitempty"`
	// Subs holds per-sub-operation decisions for composite requests.
	Subs []*IndicesAccessControl `json:"subs,omitempty"`

	// Denied carries the typed denial (*DeniedError or *CompositeDeniedError)
	// when Granted is false.
	Denied error `json:"-"`
}

// Service is the authorization entry point: it resolves the acting identity's
// roles, applies run-as, and computes the access decision for a request. All
// decisions fail closed: any internal failure yields a denial, never a grant.
type Service struct {
	roles      RoleProvider
	systemPerm *EffectivePermission
	log        *logrus.Logger
	metrics    *observability.Metrics
	trail      audit.Trail
}

// NewService creates an authorization service backed by the given role
// provider.
func NewService(roles RoleProvider, log *logrus.Logger, metrics *observability.Metrics) *Service {
	if log == nil {
		log = logrus.New()
	}
	systemPerm, err := Merge(SystemRole)
	if err != nil {
		// SystemRole is a package constant; its merge cannot fail.
		panic(fmt.Sprintf("merging system role: %v", err))
	}
	return &Service{roles: roles, systemPerm: systemPerm, log: log, metrics: metrics, trail: audit.NopTrail{}}
}

// SetAuditTrail installs the trail decisions are reported to. The trail
// observes outcomes only; it cannot change them.
func (s *Service) SetAuditTrail(trail audit.Trail) {
	if trail == nil {
		trail = audit.NopTrail{}
	}
	s.trail = trail
}

// Authorize computes the access decision for user performing req. The
// identity attached to ctx is used when user is nil, after applying the
// system-identity policy for internal actions. Denials are normal outcomes
// reported in the Decision; the error return is reserved for infrastructure
// failures, which also deny.
func (s *Service) Authorize(ctx context.Context, user *identity.User, req Request) (decision *Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("action", req.Action).Errorf("panic during authorization: %v", r)
			decision = s.deny(&DeniedError{Username: username(user), Action: req.Action}, nil, nil)
			err = fmt.Errorf("authorization failed: %v", r)
		}
	}()

	if user == nil {
		ctx = security.SubstituteSystemIdentity(ctx, req.Action)
		user = security.IdentityFrom(ctx)
	}
	if user == nil {
		return s.deny(&DeniedError{Username: "<unauthenticated>", Action: req.Action}, nil, nil), nil
	}

	perm, denial, err := s.effectivePermission(ctx, user)
	if err != nil {
		return s.deny(&DeniedError{Username: username(user), Action: req.Action}, nil, nil), err
	}
	if denial != nil {
		return s.deny(denial, nil, nil), nil
	}
	effective := user.Effective()

	switch {
	case len(req.Subs) > 0:
		results, cerr := ResolveComposite(perm, effective.Username, req.Subs)
		s.recordDecision(observability.ScopeIndices, cerr == nil)
		if cerr != nil {
			s.trail.AccessDenied(ctx, effective, req.Action, nil)
			return s.deny(cerr, nil, results), nil
		}
		s.trail.AccessGranted(ctx, effective, req.Action, nil)
		return &Decision{Granted: true, Subs: results}, nil

	case len(req.Indices) > 0:
		acl := perm.AuthorizeIndices(req.Action, req.Indices)
		s.recordDecision(observability.ScopeIndices, acl.Granted)
		if !acl.Granted {
			s.trail.AccessDenied(ctx, effective, req.Action, acl.DeniedIndices(req.Indices))
			return s.deny(&DeniedError{
				Username: effective.Username,
				Action:   req.Action,
				Indices:  acl.DeniedIndices(req.Indices),
			}, acl, nil), nil
		}
		s.trail.AccessGranted(ctx, effective, req.Action, req.Indices)
		return &Decision{Granted: true, Indices: acl}, nil

	default:
		granted := perm.AllowsClusterAction(req.Action)
		s.recordDecision(observability.ScopeCluster, granted)
		if !granted {
			s.trail.AccessDenied(ctx, effective, req.Action, nil)
			return s.deny(&DeniedError{Username: effective.Username, Action: req.Action}, nil, nil), nil
		}
		s.trail.AccessGranted(ctx, effective, req.Action, nil)
		return &Decision{Granted: true}, nil
	}
}

// effectivePermission resolves the permission the request executes under:
// the system permission for the system identity, otherwise the merged
// permission of the (possibly impersonated) user's roles. A non-nil denial
// means run-as was refused.
func (s *Service) effectivePermission(ctx context.Context, user *identity.User) (*EffectivePermission, *DeniedError, error) {
	if identity.IsSystem(user) {
		return s.systemPerm, nil, nil
	}

	if user.RunAs != nil {
		acting, err := s.mergeRoles(ctx, user.Roles)
		if err != nil {
			return nil, nil, err
		}
		if !acting.CanRunAs(user.RunAs.Username) {
			s.recordDecision(observability.ScopeRunAs, false)
			s.trail.RunAsDenied(ctx, user, user.RunAs.Username)
			return nil, &DeniedError{
				Username: user.Username,
				Action:   fmt.Sprintf("run as [%s]", user.RunAs.Username),
			}, nil
		}
		s.recordDecision(observability.ScopeRunAs, true)
		s.trail.RunAsGranted(ctx, user, user.RunAs.Username)
		user = user.RunAs
	}

	perm, err := s.mergeRoles(ctx, user.Roles)
	if err != nil {
		return nil, nil, err
	}
	return perm, nil, nil
}

func (s *Service) mergeRoles(ctx context.Context, names []string) (*EffectivePermission, error) {
	roles, err := s.roles.Roles(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("resolving roles %v: %w", names, err)
	}
	return Merge(roles...)
}

func (s *Service) deny(denial error, acl *IndicesAccessControl, subs []*IndicesAccessControl) *Decision {
	return &Decision{
		Granted: false,
		Reason:  denial.Error(),
		Indices: acl,
		Subs:    subs,
		Denied:  denial,
	}
}

func (s *Service) recordDecision(scope string, granted bool) {
	if s.metrics != nil {
		s.metrics.RecordDecision(scope, granted)
	}
}

func username(u *identity.User) string {
	if u == nil {
		return "<unauthenticated>"
	}
	return u.Username
}
