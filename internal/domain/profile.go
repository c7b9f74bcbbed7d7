package domain

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Profile mirrors the auth identity. The ID is derived deterministically
// from the OAuth provider and subject, so repeated sign-ins map to the same
// row.
type Profile struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
