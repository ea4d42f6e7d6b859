package model

// Role is the caller's role as asserted by the identity provider.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleEmployer  Role = "employer"
)

// Recognized reports whether r is a role the notification subsystem serves.
func (r Role) Recognized() bool {
	return r == RoleApplicant || r == RoleEmployer
}
