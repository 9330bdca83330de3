package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

type statsRepository struct {
	BaseRepository
}

func NewStatsRepository(cm db.EngineFactory) StatsRepository {
	return &statsRepository{
		BaseRepository: NewBaseRepository(cm),
	}
}

func (r *statsRepository) GetStats(ctx context.Context) (domain.Stats, error) {
	totalsQuery := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM teams),
			(SELECT COUNT(*) FROM pull_requests),
			(SELECT COUNT(*) FROM pull_requests WHERE status = 'OPEN'),
			(SELECT COUNT(*) FROM pull_requests WHERE status = 'MERGED')
	`
	var stats domain.Stats
	err := r.Engine(ctx).QueryRow(ctx, totalsQuery).Scan(
		&stats.TotalUsers, &stats.TotalTeams, &stats.TotalPRs, &stats.OpenPRs, &stats.MergedPRs)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to count totals: %w", err)
	}

	byUserQuery := `
		SELECT user_id, COUNT(*) AS assignment_count
		FROM pull_request_reviewers
		GROUP BY user_id
		ORDER BY assignment_count DESC, user_id
	`
	stats.UserAssignments = make([]domain.UserAssignmentCount, 0)
	if err := pgxscan.Select(ctx, r.Engine(ctx), &stats.UserAssignments, byUserQuery); err != nil {
		return domain.Stats{}, fmt.Errorf("failed to get assignment stats by user: %w", err)
	}

	byPRQuery := `
		SELECT p.pull_request_id, COUNT(r.user_id) AS reviewers_count
		FROM pull_requests p
		LEFT JOIN pull_request_reviewers r ON r.pull_request_id = p.pull_request_id
		GROUP BY p.pull_request_id
		ORDER BY p.pull_request_id
	`
	stats.PRAssignments = make([]domain.PRAssignmentCount, 0)
	if err := pgxscan.Select(ctx, r.Engine(ctx), &stats.PRAssignments, byPRQuery); err != nil {
		return domain.Stats{}, fmt.Errorf("failed to get assignment stats by pull request: %w", err)
	}

	return stats, nil
}
