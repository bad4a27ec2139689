package authz

import (
	"savora/internal/domain"
	"savora/internal/models"
)

type grant struct {
	role   string
	action string
}

// PolicySet is an immutable in-memory view of the permission_policies table.
// Build it once at startup and share it across handlers.
type PolicySet struct {
	grants map[grant]struct{}
}

func NewPolicySet(policies []models.PermissionPolicy) *PolicySet {
	s := &PolicySet{grants: make(map[grant]struct{}, len(policies))}
	for _, p := range policies {
		s.grants[grant{role: p.Role, action: p.Action}] = struct{}{}
	}
	return s
}

// Allowed reports whether role holds the given permission action.
func (s *PolicySet) Allowed(role, action string) bool {
	if s == nil {
		return false
	}
	_, ok := s.grants[grant{role: role, action: action}]
	return ok
}

// DefaultPolicies is the seed set applied at migration time.
func DefaultPolicies() []models.PermissionPolicy {
	return []models.PermissionPolicy{
		{Role: domain.RoleAdmin, Action: domain.PermReferralRead},
		{Role: domain.RoleAdmin, Action: domain.PermReferralManageConfig},
		{Role: domain.RoleAdmin, Action: domain.PermReferralExpire},
		{Role: domain.RoleAdmin, Action: domain.PermOrderComplete},
	}
}
