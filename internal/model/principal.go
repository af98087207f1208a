package model

const (
	RoleAdmin   = "ADMIN"
	RoleAdvisor = "ADVISOR"
	RoleViewer  = "VIEWER"
)

// Principal is the authenticated caller of an action.
type Principal struct {
	UserID      string
	DisplayName string
	Role        string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

func (p Principal) IsViewer() bool { return p.Role == RoleViewer }

// CanMutate reports whether the principal may change pipeline data.
func (p Principal) CanMutate() bool {
	return p.Role == RoleAdmin || p.Role == RoleAdvisor
}

// Name is used as the author of activity entries.
func (p Principal) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.UserID
}
