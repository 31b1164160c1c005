// Package lookup answers cross-service questions over the bus: who a user is and what
// a ride currently looks like. Each capability is a single timeout-bounded call.
package lookup

import (
	"context"
	"log/slog"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	"github.com/next-trace/scg-rideshare/contract/topics"
	"github.com/next-trace/scg-rideshare/servicebus"
)

// Identity is the result of an identity lookup: either Absent or Present with a role.
// The zero value is Absent.
type Identity struct {
	present  bool
	role     topics.Role
	verified bool
}

// Absent is a user the identity service does not know, or could not be asked about.
func Absent() Identity { return Identity{} }

// Present is a known user.
func Present(role topics.Role, verified bool) Identity {
	return Identity{present: true, role: role, verified: verified}
}

// Profile returns the role and email verification state; ok is false for Absent.
func (i Identity) Profile() (role topics.Role, verified bool, ok bool) {
	return i.role, i.verified, i.present
}

// Present reports whether the user exists.
func (i Identity) Present() bool { return i.present }

// Has reports whether the user exists and holds role.
func (i Identity) Has(role topics.Role) bool { return i.present && i.role == role }

// IdentityLookup resolves a user id to an Identity.
type IdentityLookup interface {
	Lookup(ctx context.Context, userID string) Identity
}

// IdentityOverBus asks the identity service on topics.UserExists.
type IdentityOverBus struct {
	requester cbus.Requester
	logger    *slog.Logger
}

var _ IdentityLookup = (*IdentityOverBus)(nil)

// NewIdentity returns an IdentityLookup backed by r.
func NewIdentity(r cbus.Requester, logger *slog.Logger) *IdentityOverBus {
	if logger == nil {
		logger = slog.Default()
	}

	return &IdentityOverBus{requester: r, logger: logger}
}

// Lookup never fails: timeouts and transport errors resolve to Absent, so callers
// cannot tell an unknown user from an unreachable identity service.
func (l *IdentityOverBus) Lookup(ctx context.Context, userID string) Identity {
	rep, err := servicebus.Request[string, topics.UserExistsReply](ctx, l.requester, topics.UserExists, userID)
	if err != nil {
		l.logger.ErrorContext(ctx, "user lookup failed", "user_id", userID, "err", err)
		return Absent()
	}

	if !rep.Exists {
		return Absent()
	}

	return Present(rep.Role, rep.IsEmailVerified != nil && *rep.IsEmailVerified)
}

// IdentityFunc adapts a function to IdentityLookup.
type IdentityFunc func(ctx context.Context, userID string) Identity

func (f IdentityFunc) Lookup(ctx context.Context, userID string) Identity { return f(ctx, userID) }
