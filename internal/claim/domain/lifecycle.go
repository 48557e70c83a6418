package domain

import (
	"github.com/coverbase/claims/internal/orgcontext"
)

// Operation names a lifecycle operation gated by the permission table.
type Operation string

const (
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpSubmit  Operation = "submit"
	OpReview  Operation = "review"
	OpApprove Operation = "approve"
	OpDeny    Operation = "deny"
	OpClose   Operation = "close"
)

// TransitionRule declares, for one operation, who may invoke it and from
// which states. Keeping policy in one table prevents drift between the
// documented matrix and per-handler conditionals.
type TransitionRule struct {
	// Roles allowed to invoke the operation (any-of).
	Roles []string
	// AllowOwner also admits the claim owner regardless of roles.
	AllowOwner bool
	// RoleGateFirst evaluates the role gate before the claim is even
	// loaded, so callers without the role learn nothing about claim state.
	RoleGateFirst bool
	// From lists the statuses the claim must currently be in. Empty for
	// create, which has no current status.
	From []ClaimStatus
	// To is the status after a successful transition.
	To ClaimStatus
	// Event is the audit event type appended on success.
	Event EventType
	// EventNote is the audit note recorded with the event.
	EventNote string
	// RequiredLabel names the role class in permission errors.
	RequiredLabel string
}

// Transitions is the full lifecycle permission table.
var Transitions = map[Operation]TransitionRule{
	OpCreate: {
		Roles:         []string{orgcontext.RoleAdmin},
		RoleGateFirst: true,
		To:            StatusDraft,
		Event:         EventCreated,
		EventNote:     "Claim created",
		RequiredLabel: "admin role",
	},
	OpUpdate: {
		Roles:         []string{orgcontext.RoleAdmin},
		AllowOwner:    true,
		From:          []ClaimStatus{StatusDraft},
		To:            StatusDraft,
		Event:         EventUpdated,
		EventNote:     "Claim updated",
		RequiredLabel: "claim ownership or admin role",
	},
	OpSubmit: {
		Roles:         []string{orgcontext.RoleAdmin},
		AllowOwner:    true,
		From:          []ClaimStatus{StatusDraft},
		To:            StatusSubmitted,
		Event:         EventSubmitted,
		EventNote:     "Claim submitted for review",
		RequiredLabel: "claim ownership or admin role",
	},
	OpReview: {
		Roles:         []string{orgcontext.RoleAdmin},
		RoleGateFirst: true,
		From:          []ClaimStatus{StatusSubmitted},
		To:            StatusUnderReview,
		Event:         EventReviewed,
		EventNote:     "Claim moved to review",
		RequiredLabel: "admin role",
	},
	OpApprove: {
		Roles:         []string{orgcontext.RoleAdmin, orgcontext.RoleBilling},
		RoleGateFirst: true,
		From:          []ClaimStatus{StatusUnderReview},
		To:            StatusApproved,
		Event:         EventApproved,
		EventNote:     "Claim approved",
		RequiredLabel: "admin or billing role",
	},
	OpDeny: {
		Roles:         []string{orgcontext.RoleAdmin},
		RoleGateFirst: true,
		From:          []ClaimStatus{StatusUnderReview},
		To:            StatusDenied,
		Event:         EventDenied,
		EventNote:     "Claim denied",
		RequiredLabel: "admin role",
	},
	OpClose: {
		Roles:         []string{orgcontext.RoleAdmin},
		AllowOwner:    true,
		From:          []ClaimStatus{StatusApproved, StatusDenied},
		To:            StatusClosed,
		Event:         EventClosed,
		EventNote:     "Claim closed",
		RequiredLabel: "claim ownership or admin role",
	},
}

// Permitted evaluates the rule's actor gate for the given context. isOwner
// is ignored unless the rule admits owners.
func (r TransitionRule) Permitted(oc orgcontext.OrgContext, isOwner bool) bool {
	if r.AllowOwner && isOwner {
		return true
	}
	for _, role := range r.Roles {
		if oc.HasRole(role) {
			return true
		}
	}
	return false
}

// AllowsFrom reports whether the rule admits a transition from the status.
func (r TransitionRule) AllowsFrom(status ClaimStatus) bool {
	for _, s := range r.From {
		if s == status {
			return true
		}
	}
	return false
}
