package services

import (
	"ustore/apperror"
	"ustore/models"
)

// Principal is the authenticated identity acting on a request.
type Principal struct {
	UserID   uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func principalOf(user *models.User) *Principal {
	return &Principal{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.RoleNames(),
	}
}

func (p *Principal) HasRole(name models.RoleName) bool {
	for _, r := range p.Roles {
		if r == string(name) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether p holds at least one of names.
func (p *Principal) HasAnyRole(names ...models.RoleName) bool {
	for _, n := range names {
		if p.HasRole(n) {
			return true
		}
	}
	return false
}

// IsStaff reports whether p may administer the catalog.
func (p *Principal) IsStaff() bool {
	return p.HasAnyRole(models.RoleAdmin, models.RoleModerator)
}

// RequirePrincipal fails with Unauthenticated when no principal is present.
func RequirePrincipal(p *Principal) (*Principal, error) {
	if p == nil {
		return nil, apperror.New(apperror.Unauthenticated, "Authentication is required")
	}
	return p, nil
}
