package auth

import "strings"

// Roles recognised by the dashboard. Unknown roles are treated as viewers.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleDispatcher = "dispatcher"
	RoleViewer     = "viewer"
)

// Principal is the authenticated dashboard user.
type Principal struct {
	User        string   `json:"user"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Teams       []string `json:"teams,omitempty"`
	Dispatchers []string `json:"dispatchers,omitempty"`
}

func normalizeRole(r string) string {
	switch r = strings.ToLower(strings.TrimSpace(r)); r {
	case RoleAdmin, RoleManager, RoleDispatcher:
		return r
	default:
		return RoleViewer
	}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// SeesAll reports whether rate data is visible for every team.
func (p Principal) SeesAll() bool {
	if p.Role == RoleAdmin || p.Role == RoleManager {
		return true
	}
	for _, t := range p.Teams {
		if t == "*" {
			return true
		}
	}
	return false
}

// CanViewTeam reports whether rate data of the named team is visible.
// Composite names ("Agnius Acme") match a granted prefix team ("agnius").
func (p Principal) CanViewTeam(team string) bool {
	if p.SeesAll() {
		return true
	}
	team = strings.TrimSpace(team)
	if team == "" {
		return false
	}
	for _, t := range p.Teams {
		if strings.EqualFold(t, team) {
			return true
		}
		if len(team) > len(t) && strings.EqualFold(team[:len(t)], t) && team[len(t)] == ' ' {
			return true
		}
	}
	return false
}

// CanViewDispatcher reports whether rate data of the named dispatcher is
// visible. Dispatchers always see their own loads.
func (p Principal) CanViewDispatcher(name string) bool {
	if p.SeesAll() {
		return true
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if p.Role == RoleDispatcher && strings.EqualFold(p.Name, name) {
		return true
	}
	for _, d := range p.Dispatchers {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// CanViewAny reports whether any of the teams or dispatchers is visible.
func (p Principal) CanViewAny(teams, dispatchers []string) bool {
	if p.SeesAll() {
		return true
	}
	for _, t := range teams {
		if p.CanViewTeam(t) {
			return true
		}
	}
	for _, d := range dispatchers {
		if p.CanViewDispatcher(d) {
			return true
		}
	}
	return false
}
