package domain

import dErrors "domus/pkg/domain-errors"

// Role labels the already-authenticated actor. The engine authorizes by
// ownership, not by role alone, but notifications and routes are role-scoped.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

func (r Role) Valid() bool {
	return r == RoleTenant || r == RoleLandlord
}

// ParseRole validates a role string from a trust boundary (JWT claim, query).
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role must be tenant or landlord")
	}
	return r, nil
}
