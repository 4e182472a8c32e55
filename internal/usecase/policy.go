package usecase

import "github.com/xavierca1/mrk-crm/internal/entity"

// RolePolicy is the default TransitionPolicy. Inactive users may not move
// leads; qualifiers may move them anywhere except won and lost.
type RolePolicy struct{}

func (RolePolicy) CanTransition(user entity.User, from, to entity.LeadStatus) bool {
	if !user.IsActive {
		return false
	}
	switch user.Role {
	case entity.RoleAdmin, entity.RoleCloser:
		return true
	case entity.RoleQualifier:
		return to != entity.StatusWon && to != entity.StatusLost
	}
	return false
}

// LeadScopeFor returns the list restriction for user's role. Admins see
// everything.
func LeadScopeFor(user entity.User) entity.LeadScope {
	id := user.ID
	switch user.Role {
	case entity.RoleCloser:
		return entity.LeadScope{CloserID: &id}
	case entity.RoleQualifier:
		return entity.LeadScope{QualifierID: &id}
	}
	return entity.LeadScope{}
}

func canAssignCloser(user entity.User) bool {
	return user.Role == entity.RoleAdmin || user.Role == entity.RoleQualifier
}

func requireAdmin(user entity.User) error {
	if user.Role != entity.RoleAdmin {
		return newDomainError(CodeUnauthorized, "admin only")
	}
	return nil
}
