package access

import (
	"testing"

	"cepas/internal/domain/user"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	cases := []struct {
		role     user.Role
		resource Resource
		action   Action
		want     bool
	}{
		{user.RoleAdmin, ResourceUsers, ActionCreate, true},
		{user.RoleAdmin, ResourceRecords, ActionDelete, true},
		{user.RoleCoordinator, ResourceFamilies, ActionDelete, true},
		{user.RoleCoordinator, ResourceRecords, ActionDelete, true},
		{user.RoleCoordinator, ResourceUsers, ActionCreate, false},
		{user.RoleMonitor, ResourceFamilies, ActionRead, true},
		{user.RoleMonitor, ResourceFamilies, ActionCreate, true},
		{user.RoleMonitor, ResourceInterviews, ActionUpdate, true},
		{user.RoleMonitor, ResourceRecords, ActionCreate, true},
		{user.RoleMonitor, ResourceFamilies, ActionDelete, false},
		{user.RoleMonitor, ResourceRecords, ActionDelete, false},
		{user.RoleMonitor, ResourceUsers, ActionRead, false},
		{"visitante", ResourceFamilies, ActionRead, false},
		{"", ResourceFamilies, ActionRead, false},
	}

	for _, tc := range cases {
		if got := policy.Allows(tc.role, tc.resource, tc.action); got != tc.want {
			t.Fatalf("Allows(%s, %s, %s) = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
		}
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	policy := NewPolicy([]Rule{
		{Role: user.RoleMonitor, Resource: ResourceFamilies, Action: ActionRead, Allow: false},
		{Role: wildcard, Resource: wildcard, Action: wildcard, Allow: true},
	})

	if policy.Allows(user.RoleMonitor, ResourceFamilies, ActionRead) {
		t.Fatalf("expected the earlier deny rule to win")
	}
	if !policy.Allows(user.RoleMonitor, ResourceFamilies, ActionCreate) {
		t.Fatalf("expected the catch-all rule to allow")
	}
}

func TestEmptyPolicyDenies(t *testing.T) {
	if NewPolicy(nil).Allows(user.RoleAdmin, ResourceFamilies, ActionRead) {
		t.Fatalf("expected deny without rules")
	}
}
