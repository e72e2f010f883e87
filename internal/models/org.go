// Package models provides data structures for the domain registry.
package models

import "time"

// Role represents a user's role within an organization.
type Role string

const (
	RoleOwner  Role = "owner"  // Full access, can invite users
	RoleMember Role = "member" // Standard access, no admin functions
)

// OrgMembership links users to organizations with roles. Members of an
// application's organization can see the application even when they cannot
// change it.
type OrgMembership struct {
	OrgID     string    `json:"org_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
