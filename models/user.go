package models

import (
	"time"
)

// UserRole defines allowed roles in the system. It is carried in the JWT
// payload as "type".
type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RoleRestaurant UserRole = "restaurant"
	RoleDelivery   UserRole = "delivery"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleRestaurant, RoleDelivery, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// SelfRegisterable reports whether accounts of this role may sign up on their own.
// Admins are created by a superadmin and the superadmin by the CLI.
func (r UserRole) SelfRegisterable() bool {
	return r == RoleCustomer || r == RoleRestaurant || r == RoleDelivery
}

// IsStaff reports whether the role has access to the admin surface.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Role         UserRole   `json:"role" gorm:"size:20;index;not null;default:'customer'"`
	Phone        string     `json:"phone" gorm:"size:20"`
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
