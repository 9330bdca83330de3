package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

type prRepository struct {
	BaseRepository
}

func NewPRRepository(cm db.EngineFactory) PRRepository {
	return &prRepository{
		BaseRepository: NewBaseRepository(cm),
	}
}

type prRow struct {
	PullRequestID   string     `db:"pull_request_id"`
	PullRequestName string     `db:"pull_request_name"`
	AuthorID        string     `db:"author_id"`
	Status          string     `db:"status"`
	CreatedAt       time.Time  `db:"created_at"`
	MergedAt        *time.Time `db:"merged_at"`
}

func (row prRow) toDomain() (domain.PullRequest, error) {
	status, err := domain.ParsePRStatus(row.Status)
	if err != nil {
		return domain.PullRequest{}, err
	}
	return domain.PullRequest{
		PullRequestID:     row.PullRequestID,
		PullRequestName:   row.PullRequestName,
		AuthorID:          row.AuthorID,
		Status:            status,
		AssignedReviewers: make([]string, 0),
		CreatedAt:         row.CreatedAt,
		MergedAt:          row.MergedAt,
	}, nil
}

// CreatePR inserts the PR row without reviewers
func (r *prRepository) CreatePR(ctx context.Context, pr domain.PullRequest) error {
	query := `
		INSERT INTO pull_requests (pull_request_id, pull_request_name, author_id, status, created_at, merged_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.Engine(ctx).Exec(ctx, query,
		pr.PullRequestID, pr.PullRequestName, pr.AuthorID, pr.Status.String(), pr.CreatedAt, pr.MergedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrPRExists, pr.PullRequestID)
		}
		return fmt.Errorf("failed to create pull request: %w", asIntegrity(err))
	}
	return nil
}

func (r *prRepository) PRExists(ctx context.Context, prID string) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM pull_requests WHERE pull_request_id = $1)
	`
	var exists bool
	if err := r.Engine(ctx).QueryRow(ctx, query, prID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pull request existence: %w", err)
	}
	return exists, nil
}

// GetPR loads a PR with its reviewers in slot order
func (r *prRepository) GetPR(ctx context.Context, prID string) (domain.PullRequest, error) {
	query := `
		SELECT pull_request_id, pull_request_name, author_id, status, created_at, merged_at
		FROM pull_requests
		WHERE pull_request_id = $1
	`
	return r.getPR(ctx, query, prID)
}

// GetPRForUpdate is GetPR with the PR row locked for the rest of the
// transaction, serializing merge and reassignment of the same PR.
func (r *prRepository) GetPRForUpdate(ctx context.Context, prID string) (domain.PullRequest, error) {
	query := `
		SELECT pull_request_id, pull_request_name, author_id, status, created_at, merged_at
		FROM pull_requests
		WHERE pull_request_id = $1
		FOR UPDATE
	`
	return r.getPR(ctx, query, prID)
}

func (r *prRepository) getPR(ctx context.Context, query, prID string) (domain.PullRequest, error) {
	var row prRow
	err := pgxscan.Get(ctx, r.Engine(ctx), &row, query, prID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return domain.PullRequest{}, fmt.Errorf("%w: %s", domain.ErrPRNotFound, prID)
		}
		return domain.PullRequest{}, fmt.Errorf("failed to get pull request: %w", err)
	}

	pr, err := row.toDomain()
	if err != nil {
		return domain.PullRequest{}, err
	}

	reviewersQuery := `
		SELECT user_id
		FROM pull_request_reviewers
		WHERE pull_request_id = $1
		ORDER BY slot
	`
	err = pgxscan.Select(ctx, r.Engine(ctx), &pr.AssignedReviewers, reviewersQuery, prID)
	if err != nil {
		return domain.PullRequest{}, fmt.Errorf("failed to get reviewers: %w", err)
	}

	return pr, nil
}

// MarkMerged flips an OPEN PR to MERGED and stores the merge instant.
func (r *prRepository) MarkMerged(ctx context.Context, prID string, mergedAt time.Time) error {
	query := `
		UPDATE pull_requests
		SET status = $2, merged_at = $3
		WHERE pull_request_id = $1 AND status = $4
	`
	tag, err := r.Engine(ctx).Exec(ctx, query,
		prID, domain.PRStatusMerged.String(), mergedAt, domain.PRStatusOpen.String())
	if err != nil {
		return fmt.Errorf("failed to merge pull request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPRNotFound, prID)
	}
	return nil
}

// AssignReviewers inserts one row per reviewer; slots follow the slice order.
func (r *prRepository) AssignReviewers(ctx context.Context, prID string, reviewers []string) error {
	query := `
		INSERT INTO pull_request_reviewers (pull_request_id, user_id, slot)
		VALUES ($1, $2, $3)
	`
	for slot, userID := range reviewers {
		if _, err := r.Engine(ctx).Exec(ctx, query, prID, userID, slot); err != nil {
			return fmt.Errorf("failed to assign reviewer %s: %w", userID, asIntegrity(err))
		}
	}
	return nil
}

// ReplaceReviewer rewrites the reviewer of an existing row, keeping its slot.
func (r *prRepository) ReplaceReviewer(ctx context.Context, prID, oldUserID, newUserID string) error {
	query := `
		UPDATE pull_request_reviewers
		SET user_id = $3, assigned_at = NOW()
		WHERE pull_request_id = $1 AND user_id = $2
	`
	tag, err := r.Engine(ctx).Exec(ctx, query, prID, oldUserID, newUserID)
	if err != nil {
		return fmt.Errorf("failed to replace reviewer: %w", asIntegrity(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s on %s", domain.ErrNotAssigned, oldUserID, prID)
	}
	return nil
}

// GetPRsByReviewer returns PRs (without reviewer lists) where userID is assigned
func (r *prRepository) GetPRsByReviewer(ctx context.Context, userID string) ([]domain.PullRequest, error) {
	query := `
		SELECT p.pull_request_id, p.pull_request_name, p.author_id, p.status, p.created_at, p.merged_at
		FROM pull_requests p
		JOIN pull_request_reviewers r ON r.pull_request_id = p.pull_request_id
		WHERE r.user_id = $1
		ORDER BY p.created_at, p.pull_request_id
	`
	var rows []prRow
	if err := pgxscan.Select(ctx, r.Engine(ctx), &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get pull requests by reviewer: %w", err)
	}

	prs := make([]domain.PullRequest, 0, len(rows))
	for _, row := range rows {
		pr, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		prs = append(prs, pr)
	}
	return prs, nil
}
