package rbac

// Role names. Keep these stable; they are part of auth contracts.
const (
	RoleOwner      = "owner"
	RoleMember     = "member"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }
