package workflow

// Caller is the identity a request acts as.
type Caller struct {
	UserID uint
	Role   Role
	Team   string
	// Verified is true when the identity came from a signed token rather than plain headers.
	Verified bool
}

// Scoped is anything owned by a team.
type Scoped interface {
	OwningTeam() string
}

// VisibleTasks keeps the tasks the caller may list. Team names are compared
// byte for byte.
func VisibleTasks[T Scoped](tasks []T, role Role, team string) []T {
	switch role {
	case RoleDeveloper:
		return tasks
	case RoleTeam:
		visible := make([]T, 0, len(tasks))
		for _, t := range tasks {
			if t.OwningTeam() == team {
				visible = append(visible, t)
			}
		}
		return visible
	default:
		return nil
	}
}

// CanManage reports whether the caller may edit or delete a task owned by team.
func CanManage(caller Caller, team string) bool {
	switch caller.Role {
	case RoleDeveloper:
		return true
	case RoleTeam:
		return caller.Team == team
	default:
		return false
	}
}
