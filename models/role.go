package models

type RoleName string

const (
	RoleUser      RoleName = "ROLE_USER"
	RoleAdmin     RoleName = "ROLE_ADMIN"
	RoleModerator RoleName = "ROLE_MODERATOR"
)

// DefaultRoles is the fixed role set seeded on first start, in insertion order.
var DefaultRoles = []Role{
	{Name: RoleUser, Description: "Default role for all users"},
	{Name: RoleAdmin, Description: "Administrator role with full access"},
	{Name: RoleModerator, Description: "Moderator role with limited admin access"},
}

type Role struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        RoleName `gorm:"size:20;uniqueIndex;not null" json:"name"`
	Description string   `gorm:"size:200" json:"description"`
}
