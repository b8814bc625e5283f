package models

import "github.com/shashiranjanraj/stockroom/pkg/rbac"

// User is a back-office account. Exactly one SuperAdmin exists; it is
// seeded by init-db and cannot be edited or deleted through the UI.
type User struct {
	Base
	Role         rbac.Role `gorm:"not null;default:2;index" json:"role"`
	Name         string    `gorm:"size:100;not null"        json:"name"`
	Phone        string    `gorm:"size:20;not null"         json:"phone"`
	Email        string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	Username     string    `gorm:"size:80;not null;uniqueIndex"  json:"username"`
	PasswordHash string    `gorm:"size:255;not null"        json:"-"` // bcrypt, never serialised
}

// Principal converts the user into the request-scoped identity.
func (u *User) Principal() *rbac.Principal {
	return &rbac.Principal{UserID: u.ID, Name: u.Name, Username: u.Username, Role: u.Role}
}

// IsSuperAdmin reports whether u is the protected bootstrap account.
func (u *User) IsSuperAdmin() bool { return u.Role == rbac.SuperAdmin }
