package domain

import "time"

// Team is a named group of users. Members is populated by the service layer
// and may be filtered (get-team returns active memberships only).
type Team struct {
	TeamName  string
	Members   []TeamMember
	CreatedAt time.Time
}

// NewTeam creates a new team
func NewTeam(teamName string, members []TeamMember) Team {
	return Team{
		TeamName:  teamName,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}
}

// TeamMember is a membership row. IsActive mirrors the user's flag but is
// stored separately; set-user-active keeps them in sync.
type TeamMember struct {
	UserID   string
	TeamName string
	Username string
	IsActive bool
	JoinedAt time.Time
}

// ActiveMembersExcluding returns active members not listed in exclude,
// preserving order.
func ActiveMembersExcluding(members []TeamMember, exclude ...string) []TeamMember {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	active := make([]TeamMember, 0, len(members))
	for _, m := range members {
		if !m.IsActive {
			continue
		}
		if _, ok := skip[m.UserID]; ok {
			continue
		}
		active = append(active, m)
	}
	return active
}
