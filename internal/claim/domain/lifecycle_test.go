package domain

import (
	"testing"

	"github.com/coverbase/claims/internal/orgcontext"
	"github.com/stretchr/testify/assert"
)

func TestTransitionTablePermissions(t *testing.T) {
	admin := orgcontext.OrgContext{Roles: []string{orgcontext.RoleAdmin}}
	billing := orgcontext.OrgContext{Roles: []string{orgcontext.RoleBilling}}
	viewer := orgcontext.OrgContext{Roles: []string{orgcontext.RoleViewer}}
	noRoles := orgcontext.OrgContext{Roles: []string{}}

	tests := []struct {
		name    string
		op      Operation
		oc      orgcontext.OrgContext
		isOwner bool
		want    bool
	}{
		{"create admin", OpCreate, admin, false, true},
		{"create billing", OpCreate, billing, false, false},
		{"create viewer", OpCreate, viewer, false, false},
		{"create owner flag ignored", OpCreate, noRoles, true, false},

		{"update owner", OpUpdate, noRoles, true, true},
		{"update admin non-owner", OpUpdate, admin, false, true},
		{"update viewer non-owner", OpUpdate, viewer, false, false},

		{"submit owner", OpSubmit, noRoles, true, true},
		{"submit admin", OpSubmit, admin, false, true},
		{"submit billing non-owner", OpSubmit, billing, false, false},

		{"review admin", OpReview, admin, false, true},
		{"review billing", OpReview, billing, false, false},
		{"review owner not enough", OpReview, noRoles, true, false},

		{"approve admin", OpApprove, admin, false, true},
		{"approve billing", OpApprove, billing, false, true},
		{"approve viewer", OpApprove, viewer, false, false},
		{"approve owner not enough", OpApprove, noRoles, true, false},

		{"deny admin", OpDeny, admin, false, true},
		{"deny billing", OpDeny, billing, false, false},

		{"close owner", OpClose, noRoles, true, true},
		{"close admin", OpClose, admin, false, true},
		{"close viewer non-owner", OpClose, viewer, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule := Transitions[tc.op]
			assert.Equal(t, tc.want, rule.Permitted(tc.oc, tc.isOwner))
		})
	}
}

func TestTransitionTableStates(t *testing.T) {
	assert.Empty(t, Transitions[OpCreate].From)
	assert.True(t, Transitions[OpUpdate].AllowsFrom(StatusDraft))
	assert.False(t, Transitions[OpUpdate].AllowsFrom(StatusSubmitted))
	assert.True(t, Transitions[OpSubmit].AllowsFrom(StatusDraft))
	assert.True(t, Transitions[OpReview].AllowsFrom(StatusSubmitted))
	assert.True(t, Transitions[OpApprove].AllowsFrom(StatusUnderReview))
	assert.True(t, Transitions[OpDeny].AllowsFrom(StatusUnderReview))
	assert.True(t, Transitions[OpClose].AllowsFrom(StatusApproved))
	assert.True(t, Transitions[OpClose].AllowsFrom(StatusDenied))
	assert.False(t, Transitions[OpClose].AllowsFrom(StatusDraft))
}

func TestRoleGateOrderingFlags(t *testing.T) {
	// Operations gated purely by role reject before the claim is loaded;
	// owner-sensitive ones must load the claim first.
	assert.True(t, Transitions[OpCreate].RoleGateFirst)
	assert.True(t, Transitions[OpReview].RoleGateFirst)
	assert.True(t, Transitions[OpApprove].RoleGateFirst)
	assert.True(t, Transitions[OpDeny].RoleGateFirst)
	assert.False(t, Transitions[OpUpdate].RoleGateFirst)
	assert.False(t, Transitions[OpSubmit].RoleGateFirst)
	assert.False(t, Transitions[OpClose].RoleGateFirst)
}

func TestErrorMessages(t *testing.T) {
	permErr := &PermissionError{Operation: OpApprove, Required: "admin or billing role"}
	assert.Equal(t, "approve requires admin or billing role", permErr.Error())

	transErr := &TransitionError{Operation: OpSubmit, Required: []ClaimStatus{StatusDraft}}
	assert.Equal(t, "can only submit claims in DRAFT status", transErr.Error())

	closeErr := &TransitionError{Operation: OpClose, Required: []ClaimStatus{StatusApproved, StatusDenied}}
	assert.Equal(t, "can only close claims in APPROVED or DENIED status", closeErr.Error())
}

func TestParseStatusAndType(t *testing.T) {
	status, ok := ParseStatus("UNDER_REVIEW")
	assert.True(t, ok)
	assert.Equal(t, StatusUnderReview, status)

	_, ok = ParseStatus("under_review")
	assert.False(t, ok)

	claimType, ok := ParseType("LIABILITY")
	assert.True(t, ok)
	assert.Equal(t, TypeLiability, claimType)

	_, ok = ParseType("")
	assert.False(t, ok)
}
