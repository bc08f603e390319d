package auth

// Roles. Managers see every rep's submissions; reps only their own.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleRep     = "rep"
)

// Permission names a role-gated capability.
type Permission string

const (
	PermViewAllReps       Permission = "canViewAllReps"
	PermEditAllReps       Permission = "canEditAllReps"
	PermDeleteSubmissions Permission = "canDeleteSubmissions"
	PermExportData        Permission = "canExportData"
	PermManageRepTracking Permission = "canManageRepTracking"
)

var rolePermissions = map[string]map[Permission]bool{
	RoleAdmin: {
		PermViewAllReps:       true,
		PermEditAllReps:       true,
		PermDeleteSubmissions: true,
		PermExportData:        true,
		PermManageRepTracking: true,
	},
	RoleManager: {
		PermViewAllReps:       true,
		PermEditAllReps:       true,
		PermDeleteSubmissions: true,
		PermExportData:        true,
		PermManageRepTracking: true,
	},
	RoleRep: {
		PermExportData: true,
	},
}

// Can reports whether the role holds the permission. Unknown roles hold
// nothing.
func Can(role string, perm Permission) bool {
	return rolePermissions[role][perm]
}
