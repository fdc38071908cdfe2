package entity

type Role string

const (
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleAgent || r == RoleAdmin
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

func (c Caller) IsAgent() bool { return c.Role == RoleAgent }
