package models

// Role represents user role types issued by the identity service
type Role string

const (
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// Operator is the authenticated caller, resolved from the bearer token.
// Users are owned by the external identity service and are not stored here.
type Operator struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the operator has admin privileges
func (o Operator) IsAdmin() bool {
	return o.Role == RoleAdmin
}
