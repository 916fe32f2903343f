package access

import "cepas/internal/domain/user"

type Resource string

const (
	ResourceFamilies   Resource = "families"
	ResourceInterviews Resource = "interviews"
	ResourceRecords    Resource = "records"
	ResourceUsers      Resource = "users"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const wildcard = "*"

type Rule struct {
	Role     user.Role
	Resource Resource
	Action   Action
	Allow    bool
}

func (r Rule) matches(role user.Role, resource Resource, action Action) bool {
	return (r.Role == role || r.Role == wildcard) &&
		(r.Resource == resource || r.Resource == wildcard) &&
		(r.Action == action || r.Action == wildcard)
}

// Policy is an ordered rule table. The first matching rule decides; no match
// denies.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules []Rule) *Policy {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Policy{rules: copied}
}

func DefaultPolicy() *Policy {
	return NewPolicy(DefaultRules)
}

var DefaultRules = []Rule{
	{Role: user.RoleAdmin, Resource: wildcard, Action: wildcard, Allow: true},

	{Role: user.RoleCoordinator, Resource: ResourceFamilies, Action: wildcard, Allow: true},
	{Role: user.RoleCoordinator, Resource: ResourceInterviews, Action: wildcard, Allow: true},
	{Role: user.RoleCoordinator, Resource: ResourceRecords, Action: wildcard, Allow: true},

	{Role: user.RoleMonitor, Resource: wildcard, Action: ActionDelete, Allow: false},
	{Role: user.RoleMonitor, Resource: ResourceFamilies, Action: wildcard, Allow: true},
	{Role: user.RoleMonitor, Resource: ResourceInterviews, Action: wildcard, Allow: true},
	{Role: user.RoleMonitor, Resource: ResourceRecords, Action: wildcard, Allow: true},
}

func (p *Policy) Allows(role user.Role, resource Resource, action Action) bool {
	for _, rule := range p.rules {
		if rule.matches(role, resource, action) {
			return rule.Allow
		}
	}
	return false
}
