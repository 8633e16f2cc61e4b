package workflow

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is the closed set of user roles. The zero value is not a valid role.
type Role int

const (
	RoleUnknown Role = iota
	RoleDeveloper
	RoleTeam
)

const (
	roleDeveloperLabel = "DEVELOPER"
	roleTeamLabel      = "TEAM"
)

// ParseRole matches the wire labels exactly. Anything else yields RoleUnknown.
func ParseRole(s string) (Role, bool) {
	switch s {
	case roleDeveloperLabel:
		return RoleDeveloper, true
	case roleTeamLabel:
		return RoleTeam, true
	default:
		return RoleUnknown, false
	}
}

func (r Role) String() string {
	switch r {
	case RoleDeveloper:
		return roleDeveloperLabel
	case RoleTeam:
		return roleTeamLabel
	default:
		return ""
	}
}

func (r Role) Valid() bool {
	return r == RoleDeveloper || r == RoleTeam
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role, ok := ParseRole(s)
	if !ok {
		return fmt.Errorf("unknown role %q", s)
	}
	*r = role
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	role, ok := ParseRole(s)
	if !ok {
		return fmt.Errorf("unknown role %q", s)
	}
	*r = role
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into string", src)
	}
}
