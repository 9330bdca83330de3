package domain

import "time"

// User represents a person known to the service
type User struct {
	UserID    string
	Username  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// TeamName is the user's first active membership, resolved by the
	// service layer. Empty when the user has none.
	TeamName string
}

// NewUser creates a new user
func NewUser(userID, username string, isActive bool) User {
	now := time.Now().UTC()
	return User{
		UserID:    userID,
		Username:  username,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetIsActive sets the user's active status
func (u *User) SetIsActive(isActive bool) {
	u.IsActive = isActive
	u.UpdatedAt = time.Now().UTC()
}

// Membership builds the membership row for this user in teamName.
func (u User) Membership(teamName string) TeamMember {
	return TeamMember{
		UserID:   u.UserID,
		TeamName: teamName,
		Username: u.Username,
		IsActive: u.IsActive,
		JoinedAt: time.Now().UTC(),
	}
}
