// Package audit records authorization outcomes as structured audit events.
// The trail is an observer of decisions already made: it never influences
// them, and a trail failure never turns into a denial or a grant.
package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tessera-data/warden/pkg/contextkeys"
	"github.com/tessera-data/warden/pkg/identity"
)

// EventType classifies an audit event
type EventType string

const (
	EventAccessGranted       EventType = "access_granted"
	EventAccessDenied        EventType = "access_denied"
	EventRunAsGranted        EventType = "run_as_granted"
	EventRunAsDenied         EventType = "run_as_denied"
	EventSystemAccessGranted EventType = "system_access_granted"
)

// Trail receives authorization outcomes. Implementations must be safe for
// concurrent use and must not block the decision path.
type Trail interface {
	AccessGranted(ctx context.Context, user *identity.User, action string, indices []string)
	AccessDenied(ctx context.Context, user *identity.User, action string, indices []string)
	RunAsGranted(ctx context.Context, user *identity.User, target string)
	RunAsDenied(ctx context.Context, user *identity.User, target string)
}

// NopTrail discards all events.
type NopTrail struct{}

func (NopTrail) AccessGranted(context.Context, *identity.User, string, []string) {}
func (NopTrail) AccessDenied(context.Context, *identity.User, string, []string)  {}
func (NopTrail) RunAsGranted(context.Context, *identity.User, string)            {}
func (NopTrail) RunAsDenied(context.Context, *identity.User, string)             {}

// LogTrail writes audit events through a structured logger. System-identity
// grants are logged at debug level: internal actions fire constantly and
// would otherwise drown the trail.
type LogTrail struct {
	log *logrus.Logger
}

// NewLogTrail creates a trail backed by the given logger.
func NewLogTrail(log *logrus.Logger) *LogTrail {
	if log == nil {
		log = logrus.New()
	}
	return &LogTrail{log: log}
}

func (t *LogTrail) AccessGranted(ctx context.Context, user *identity.User, action string, indices []string) {
	entry := t.entry(ctx, user, action, indices)
	if identity.IsSystem(user) {
		entry.WithField("event", EventSystemAccessGranted).Debug("audit")
		return
	}
	entry.WithField("event", EventAccessGranted).Info("audit")
}

func (t *LogTrail) AccessDenied(ctx context.Context, user *identity.User, action string, indices []string) {
	t.entry(ctx, user, action, indices).WithField("event", EventAccessDenied).Warn("audit")
}

func (t *LogTrail) RunAsGranted(ctx context.Context, user *identity.User, target string) {
	t.entry(ctx, user, "", nil).WithFields(logrus.Fields{
		"event":  EventRunAsGranted,
		"run_as": target,
	}).Info("audit")
}

func (t *LogTrail) RunAsDenied(ctx context.Context, user *identity.User, target string) {
	t.entry(ctx, user, "", nil).WithFields(logrus.Fields{
		"event":  EventRunAsDenied,
		"run_as": target,
	}).Warn("audit")
}

func (t *LogTrail) entry(ctx context.Context, user *identity.User, action string, indices []string) *logrus.Entry {
	fields := logrus.Fields{}
	if user != nil {
		fields["user"] = user.Username
	}
	if action != "" {
		fields["action"] = action
	}
	if len(indices) > 0 {
		fields["indices"] = indices
	}
	if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
		fields["request_id"] = requestID
	}
	return t.log.WithFields(fields)
}
