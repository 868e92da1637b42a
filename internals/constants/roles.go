package constants

import "fmt"

// Role global (claim roles_global di JWT)
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleScheduler = "scheduler"
	RoleOwner     = "owner"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess     = "❌ Hanya admin yang boleh mengakses fitur %s."
	ErrOnlySchedulersCanAccess = "❌ Hanya admin atau penyusun jadwal yang boleh mengakses fitur %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorScheduler(feature string) string {
	return fmt.Sprintf(ErrOnlySchedulersCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleUser,
		RoleAdmin,
		RoleScheduler,
		RoleOwner,
	}

	// default ADMIN_ROLES
	ScheduleEditors = []string{
		RoleAdmin,
		RoleScheduler,
		RoleOwner,
	}
)
