package repository

import (
	"context"
	"time"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

// TeamRepository defines methods for team data access
type TeamRepository interface {
	CreateTeam(ctx context.Context, team domain.Team) error
	GetTeam(ctx context.Context, teamName string) (domain.Team, error)
	TeamExists(ctx context.Context, teamName string) (bool, error)
}

// UserRepository defines methods for user data access
type UserRepository interface {
	UpsertUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (domain.User, error)
	// GetActiveUser returns domain.ErrUserNotFound for inactive users too.
	// Inside a transaction the row stays share-locked until commit.
	GetActiveUser(ctx context.Context, userID string) (domain.User, error)
	SetUserActive(ctx context.Context, userID string, isActive bool) (domain.User, error)
}

// MembershipRepository defines methods for team membership data access.
// Listing order is membership insertion order.
type MembershipRepository interface {
	AddMember(ctx context.Context, member domain.TeamMember) error
	ListActiveMembers(ctx context.Context, teamName string) ([]domain.TeamMember, error)
	SetMembershipsActive(ctx context.Context, userID string, isActive bool) error
	FindActiveTeam(ctx context.Context, userID string) (string, bool, error)
}

type PRRepository interface {
	CreatePR(ctx context.Context, pr domain.PullRequest) error
	PRExists(ctx context.Context, prID string) (bool, error)
	GetPR(ctx context.Context, prID string) (domain.PullRequest, error)
	GetPRForUpdate(ctx context.Context, prID string) (domain.PullRequest, error)
	MarkMerged(ctx context.Context, prID string, mergedAt time.Time) error
	AssignReviewers(ctx context.Context, prID string, reviewers []string) error
	ReplaceReviewer(ctx context.Context, prID, oldUserID, newUserID string) error
	GetPRsByReviewer(ctx context.Context, userID string) ([]domain.PullRequest, error)
}

type StatsRepository interface {
	GetStats(ctx context.Context) (domain.Stats, error)
}

type BaseRepository struct {
	cm db.EngineFactory
}

func NewBaseRepository(cm db.EngineFactory) BaseRepository {
	return BaseRepository{cm: cm}
}

func (r *BaseRepository) Engine(ctx context.Context) db.Engine {
	return r.cm.Get(ctx)
}
