// Package orgcontext carries the validated per-request organization context.
package orgcontext

import (
	"context"

	"github.com/google/uuid"
)

// Roles recognized by the lifecycle permission table. Comparisons are
// case-sensitive against the literal token values.
const (
	RoleAdmin   = "admin"
	RoleBilling = "billing"
	RoleViewer  = "viewer"
)

// OrgContext is the resolved organization context for one request: the
// organization named by the X-Organization-Id header, validated against the
// caller's token memberships, plus the caller identity. It is immutable and
// discarded at request end.
type OrgContext struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	DisplayName    string
	Roles          []string
}

func (c OrgContext) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (c OrgContext) IsAdmin() bool   { return c.HasRole(RoleAdmin) }
func (c OrgContext) IsBilling() bool { return c.HasRole(RoleBilling) }
func (c OrgContext) IsViewer() bool  { return c.HasRole(RoleViewer) }

type orgContextKey struct{}

// WithOrgContext stores the org context in the request context.
func WithOrgContext(ctx context.Context, oc OrgContext) context.Context {
	return context.WithValue(ctx, orgContextKey{}, oc)
}

// FromContext returns the org context, if set.
func FromContext(ctx context.Context) (OrgContext, bool) {
	if ctx == nil {
		return OrgContext{}, false
	}
	oc, ok := ctx.Value(orgContextKey{}).(OrgContext)
	return oc, ok
}
