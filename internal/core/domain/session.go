package domain

import "errors"

// Role codes carried in the credential payload.
const (
	RoleCodeAdministrator     = "1"
	RoleCodeSalesperson       = "2"
	RoleCodeProductionManager = "3"
)

// Role display names. Permission checks are made against these names, never
// against the raw codes; adding a role means extending roleNames as well.
const (
	RoleAdministrator     = "Administrator"
	RoleSalesperson       = "Salesperson"
	RoleProductionManager = "ProductionManager"
)

var roleNames = map[string]string{
	RoleCodeAdministrator:     RoleAdministrator,
	RoleCodeSalesperson:       RoleSalesperson,
	RoleCodeProductionManager: RoleProductionManager,
}

// RoleName maps a role code to its display name. Unknown codes map to "".
func RoleName(code string) string {
	return roleNames[code]
}

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionInactive    = errors.New("session inactive")
)

// Claims is the decoded payload of a credential.
type Claims struct {
	SubjectID   int64  `json:"subject_id"`
	RoleCode    string `json:"role_code"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds
}

// RoleName returns the display name of the claims' role, or "" if unknown.
func (c Claims) RoleName() string {
	return RoleName(c.RoleCode)
}
