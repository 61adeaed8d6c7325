package user

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
)

// Roles
const (
	RoleStudent    = "student"
	RoleFaculty    = "faculty"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

var (
	// WriterRoles may create assessments and sessions, and grade submissions.
	WriterRoles = []string{RoleFaculty, RoleAdmin, RoleSuperAdmin}
	AdminRoles  = []string{RoleAdmin, RoleSuperAdmin}
	AllRoles    = []string{RoleStudent, RoleFaculty, RoleAdmin, RoleSuperAdmin}
)

// User is a Directory Entry.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (u User) IsStudent() bool { return u.Role == RoleStudent }

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (p Principal) HasRole(roles ...string) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether `p` may see records owned by other faculty.
func (p Principal) IsAdmin() bool { return p.HasRole(AdminRoles...) }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=student faculty admin superadmin"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	return validate.Struct(nu)
}
