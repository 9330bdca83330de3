package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

type membershipRepository struct {
	BaseRepository
}

func NewMembershipRepository(cm db.EngineFactory) MembershipRepository {
	return &membershipRepository{
		BaseRepository: NewBaseRepository(cm),
	}
}

// AddMember inserts a membership row. A second row for the same
// (user_id, team_name) is an integrity violation.
func (r *membershipRepository) AddMember(ctx context.Context, member domain.TeamMember) error {
	query := `
		INSERT INTO team_members (user_id, team_name, username, is_active, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.Engine(ctx).Exec(ctx, query,
		member.UserID, member.TeamName, member.Username, member.IsActive, member.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", asIntegrity(err))
	}
	return nil
}

// ListActiveMembers returns active memberships of a team in insertion order.
// Inside a transaction the rows stay share-locked so a concurrent
// deactivation waits for the caller to finish.
func (r *membershipRepository) ListActiveMembers(ctx context.Context, teamName string) ([]domain.TeamMember, error) {
	query := `
		SELECT user_id, team_name, username, is_active, joined_at
		FROM team_members
		WHERE team_name = $1 AND is_active
		ORDER BY member_seq
		FOR SHARE
	`
	members := make([]domain.TeamMember, 0)
	err := pgxscan.Select(ctx, r.Engine(ctx), &members, query, teamName)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

func (r *membershipRepository) SetMembershipsActive(ctx context.Context, userID string, isActive bool) error {
	query := `
		UPDATE team_members
		SET is_active = $2
		WHERE user_id = $1
	`
	_, err := r.Engine(ctx).Exec(ctx, query, userID, isActive)
	if err != nil {
		return fmt.Errorf("failed to update memberships: %w", err)
	}
	return nil
}

// FindActiveTeam returns the team of the user's first active membership.
func (r *membershipRepository) FindActiveTeam(ctx context.Context, userID string) (string, bool, error) {
	query := `
		SELECT team_name
		FROM team_members
		WHERE user_id = $1 AND is_active
		ORDER BY member_seq
		LIMIT 1
	`
	var teamName string
	err := r.Engine(ctx).QueryRow(ctx, query, userID).Scan(&teamName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to find active team: %w", err)
	}
	return teamName, true, nil
}
