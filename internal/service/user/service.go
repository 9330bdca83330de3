package user

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

type userRepository interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	SetUserActive(ctx context.Context, userID string, isActive bool) (domain.User, error)
}

type membershipRepository interface {
	SetMembershipsActive(ctx context.Context, userID string, isActive bool) error
	FindActiveTeam(ctx context.Context, userID string) (string, bool, error)
}

type prRepository interface {
	GetPRsByReviewer(ctx context.Context, userID string) ([]domain.PullRequest, error)
}

// Service handles user business logic
type Service struct {
	userRepo       userRepository
	membershipRepo membershipRepository
	prRepo         prRepository
	transactor     db.Transactioner
	logger         *zap.Logger
}

// NewService creates a new user service
func NewService(
	userRepo userRepository,
	membershipRepo membershipRepository,
	prRepo prRepository,
	transactor db.Transactioner,
	logger *zap.Logger,
) *Service {
	return &Service{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		prRepo:         prRepo,
		transactor:     transactor,
		logger:         logger,
	}
}

// SetIsActive updates the user's flag and every membership of that user.
// The returned user carries the team of its first membership that is still
// active, or an empty team name.
func (s *Service) SetIsActive(
	ctx context.Context,
	userID string,
	isActive bool,
) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, domain.ErrInvalidArgument
	}

	var user domain.User
	err := s.transactor.Do(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.userRepo.SetUserActive(txCtx, userID, isActive)
		if err != nil {
			return err
		}

		if err := s.membershipRepo.SetMembershipsActive(txCtx, userID, isActive); err != nil {
			return err
		}

		teamName, _, err := s.membershipRepo.FindActiveTeam(txCtx, userID)
		if err != nil {
			return err
		}
		user.TeamName = teamName
		return nil
	})
	if err != nil {
		return domain.User{}, s.fail("set user active", err, zap.String("user_id", userID))
	}

	s.logger.Info("user activity changed",
		zap.String("user_id", userID),
		zap.Bool("is_active", isActive),
	)

	return user, nil
}

// GetPRsByReviewer returns PRs where user is assigned as reviewer.
// The user's active flag does not matter.
func (s *Service) GetPRsByReviewer(
	ctx context.Context,
	userID string,
) ([]domain.PullRequest, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var prs []domain.PullRequest
	err := s.transactor.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.userRepo.GetUser(txCtx, userID); err != nil {
			return err
		}

		var err error
		prs, err = s.prRepo.GetPRsByReviewer(txCtx, userID)
		return err
	})
	if err != nil {
		return nil, s.fail("get review pull requests", err, zap.String("user_id", userID))
	}

	return prs, nil
}

func (s *Service) fail(op string, err error, fields ...zap.Field) error {
	err = domain.Sanitize(err)
	fields = append(fields, zap.Error(err))
	if errors.Is(err, domain.ErrInternal) || errors.Is(err, domain.ErrIntegrity) {
		s.logger.Error(op+" failed", fields...)
	} else {
		s.logger.Debug(op+" rejected", fields...)
	}
	return err
}
