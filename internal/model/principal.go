package model

import "github.com/google/uuid"

// Roles issued by the identity service.
const (
	RoleAdmin      = "ADMIN"
	RolePharmacist = "PHARMACIST"
	RoleCashier    = "CASHIER"
	RoleAccountant = "ACCOUNTANT"
)

// Principal is the authenticated caller. Core operations only use BranchID
// (partition key) and ID/Name (audit attribution).
type Principal struct {
	ID       uuid.UUID
	Name     string
	Role     string
	BranchID uuid.UUID
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePharmacist, RoleCashier, RoleAccountant:
		return true
	}
	return false
}
