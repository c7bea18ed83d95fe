package rbac

// Role names. Keep these stable; they are baked into issued tokens.
const (
	// RoleOperator places and hangs up calls.
	RoleOperator = "operator"
	// RoleAnalyst reads call statistics.
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// IsKnown reports whether role is one vpbxctl may mint tokens for.
func IsKnown(role string) bool {
	switch role {
	case RoleOperator, RoleAnalyst, RoleAdmin:
		return true
	default:
		return false
	}
}
