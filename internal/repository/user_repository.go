package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(cm db.EngineFactory) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(cm),
	}
}

// UpsertUser inserts the user or overwrites username and flag by user_id.
func (r *userRepository) UpsertUser(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (user_id, username, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET
			username = EXCLUDED.username,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.Engine(ctx).Exec(ctx, query,
		user.UserID, user.Username, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", asIntegrity(err))
	}
	return nil
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (domain.User, error) {
	query := `
		SELECT user_id, username, is_active, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`
	return r.getUser(ctx, userID, query, userID)
}

func (r *userRepository) GetActiveUser(ctx context.Context, userID string) (domain.User, error) {
	query := `
		SELECT user_id, username, is_active, created_at, updated_at
		FROM users
		WHERE user_id = $1 AND is_active
		FOR SHARE
	`
	return r.getUser(ctx, userID, query, userID)
}

func (r *userRepository) getUser(ctx context.Context, userID, query string, args ...any) (domain.User, error) {
	var user domain.User
	err := pgxscan.Get(ctx, r.Engine(ctx), &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SetUserActive updates the flag on the user row only; memberships are
// handled by MembershipRepository.SetMembershipsActive.
func (r *userRepository) SetUserActive(ctx context.Context, userID string, isActive bool) (domain.User, error) {
	query := `
		UPDATE users
		SET is_active = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id, username, is_active, created_at, updated_at
	`
	return r.getUser(ctx, userID, query, userID, isActive)
}
