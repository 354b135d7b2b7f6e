package domain

// Role enumerates the closed set of caller privilege levels.
type Role string

const (
	RoleClient        Role = "client"
	RoleOperator      Role = "operator"
	RoleManager       Role = "manager"
	RoleAdministrator Role = "administrator"
)

var roleRank = map[Role]int{
	RoleClient:        1,
	RoleOperator:      2,
	RoleManager:       3,
	RoleAdministrator: 4,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above min. Unknown roles never qualify.
func (r Role) AtLeast(min Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	need, ok := roleRank[min]
	if !ok {
		return false
	}
	return have >= need
}

// Roles lists every role from least to most privileged.
func Roles() []Role {
	return []Role{RoleClient, RoleOperator, RoleManager, RoleAdministrator}
}

// AuthMethod records how an identity was authenticated.
type AuthMethod string

const (
	AuthMethodSession      AuthMethod = "session"
	AuthMethodSharedSecret AuthMethod = "shared_secret"
)

// Identity is the resolved caller for a single request. It is never persisted.
type Identity struct {
	ID     string
	Role   Role
	Method AuthMethod
}
