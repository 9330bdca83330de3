package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

type teamRepository struct {
	BaseRepository
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(cm db.EngineFactory) TeamRepository {
	return &teamRepository{
		BaseRepository: NewBaseRepository(cm),
	}
}

// CreateTeam creates a new team
func (r *teamRepository) CreateTeam(ctx context.Context, team domain.Team) error {
	query := `
		INSERT INTO teams (team_name, created_at)
		VALUES ($1, $2)
	`
	_, err := r.Engine(ctx).Exec(ctx, query, team.TeamName, team.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrTeamExists, team.TeamName)
		}
		return fmt.Errorf("failed to create team: %w", asIntegrity(err))
	}
	return nil
}

// GetTeam retrieves a team without its members
func (r *teamRepository) GetTeam(ctx context.Context, teamName string) (domain.Team, error) {
	query := `
		SELECT team_name, created_at
		FROM teams
		WHERE team_name = $1
	`
	var team domain.Team
	err := pgxscan.Get(ctx, r.Engine(ctx), &team, query, teamName)
	if err != nil {
		if pgxscan.NotFound(err) {
			return domain.Team{}, fmt.Errorf("%w: %s", domain.ErrTeamNotFound, teamName)
		}
		return domain.Team{}, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// TeamExists checks if a team exists
func (r *teamRepository) TeamExists(ctx context.Context, teamName string) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM teams WHERE team_name = $1)
	`
	var exists bool
	err := r.Engine(ctx).QueryRow(ctx, query, teamName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check team existence: %w", err)
	}
	return exists, nil
}
