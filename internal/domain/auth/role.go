package auth

type Role string

const (
	RoleOwner    Role = "owner"    // full access, including settings and bulk sync
	RoleManager  Role = "manager"  // reviews and corrects attendance
	RoleEmployee Role = "employee" // read-only on own data, not served by this API
	RoleDevice   Role = "device"   // attendance terminals pushing scans
)

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleEmployee, RoleDevice:
		return true
	}
	return false
}
