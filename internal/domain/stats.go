package domain

// Stats is a point-in-time snapshot of service counters.
type Stats struct {
	TotalUsers      int
	TotalTeams      int
	TotalPRs        int
	OpenPRs         int
	MergedPRs       int
	UserAssignments []UserAssignmentCount
	PRAssignments   []PRAssignmentCount
}

type UserAssignmentCount struct {
	UserID          string `db:"user_id"`
	AssignmentCount int    `db:"assignment_count"`
}

type PRAssignmentCount struct {
	PullRequestID  string `db:"pull_request_id"`
	ReviewersCount int    `db:"reviewers_count"`
}
