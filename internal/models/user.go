package models

import (
	"time"

	"github.com/google/uuid"
)

// Role names known to the platform. Roles live in their own table and are
// attached to users via user_roles.
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleCustomer  = "customer"
)

// Role is a named capability grouping.
type Role struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// User represents a platform user.
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Password    string     `json:"-"`
	FullName    string     `json:"full_name"`
	IsActive    bool       `json:"is_active"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
	}
}

// Identity is the caller's resolved identity: user ID plus the role set,
// computed once per request and passed explicitly into services.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Roles  []string
}

// HasRole reports whether the identity carries the named role.
func (i Identity) HasRole(name string) bool {
	for _, r := range i.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.HasRole(RoleAdmin) }

// IsOrganizer reports whether the identity carries the organizer role.
func (i Identity) IsOrganizer() bool { return i.HasRole(RoleOrganizer) }
