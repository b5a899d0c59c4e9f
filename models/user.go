package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"size:120;not null" json:"-"`
	FullName     string    `gorm:"size:100" json:"full_name"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Address      string    `gorm:"size:255" json:"address"`
	City         string    `gorm:"size:100" json:"city"`
	Country      string    `gorm:"size:100" json:"country"`
	PostalCode   string    `gorm:"size:20" json:"postal_code"`
	ProfileImage string    `gorm:"size:255" json:"profile_image"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	IsVerified   bool      `gorm:"not null" json:"is_verified"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Roles        []Role    `gorm:"many2many:user_roles;" json:"roles"`
}

// RoleNames returns the names of the roles assigned to the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, string(r.Name))
	}
	return names
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
