package pullrequest

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
	"pr-reviewer/internal/service/assignment"
)

type prRepository interface {
	CreatePR(ctx context.Context, pr domain.PullRequest) error
	PRExists(ctx context.Context, prID string) (bool, error)
	GetPRForUpdate(ctx context.Context, prID string) (domain.PullRequest, error)
	MarkMerged(ctx context.Context, prID string, mergedAt time.Time) error
	AssignReviewers(ctx context.Context, prID string, reviewers []string) error
	ReplaceReviewer(ctx context.Context, prID, oldUserID, newUserID string) error
}

type userRepository interface {
	GetActiveUser(ctx context.Context, userID string) (domain.User, error)
}

type membershipRepository interface {
	ListActiveMembers(ctx context.Context, teamName string) ([]domain.TeamMember, error)
	FindActiveTeam(ctx context.Context, userID string) (string, bool, error)
}

// Service handles pull request business logic
type Service struct {
	prRepo         prRepository
	userRepo       userRepository
	membershipRepo membershipRepository
	transactor     db.Transactioner
	assignStrategy *assignment.Strategy
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a new PR service
func NewService(
	prRepo prRepository,
	userRepo userRepository,
	membershipRepo membershipRepository,
	transactor db.Transactioner,
	assignStrategy *assignment.Strategy,
	logger *zap.Logger,
) *Service {
	return &Service{
		prRepo:         prRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		transactor:     transactor,
		assignStrategy: assignStrategy,
		logger:         logger,
		now:            time.Now,
	}
}

// CreatePR creates an OPEN PR and auto-assigns reviewers from the author's
// active team.
func (s *Service) CreatePR(
	ctx context.Context,
	prID, prName, authorID string,
) (domain.PullRequest, error) {
	prID = strings.TrimSpace(prID)
	prName = strings.TrimSpace(prName)
	authorID = strings.TrimSpace(authorID)
	if prID == "" || prName == "" || authorID == "" {
		return domain.PullRequest{}, domain.ErrInvalidArgument
	}

	fields := []zap.Field{zap.String("pr_id", prID), zap.String("author_id", authorID)}

	var pr domain.PullRequest
	err := s.transactor.Do(ctx, func(txCtx context.Context) error {
		exists, err := s.prRepo.PRExists(txCtx, prID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrPRExists
		}

		if _, err := s.userRepo.GetActiveUser(txCtx, authorID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrAuthorNotFound
			}
			return err
		}

		teamName, ok, err := s.membershipRepo.FindActiveTeam(txCtx, authorID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTeamNotFound
		}

		members, err := s.membershipRepo.ListActiveMembers(txCtx, teamName)
		if err != nil {
			return err
		}

		pr = domain.NewPullRequest(prID, prName, authorID)
		pr.AssignedReviewers = s.assignStrategy.SelectReviewers(members, authorID)

		if err := s.prRepo.CreatePR(txCtx, pr); err != nil {
			return err
		}

		if len(pr.AssignedReviewers) > 0 {
			if err := s.prRepo.AssignReviewers(txCtx, prID, pr.AssignedReviewers); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return domain.PullRequest{}, s.fail("create pull request", err, fields...)
	}

	s.logger.Info("pull request created",
		append(fields, zap.Strings("reviewers", pr.AssignedReviewers))...)

	return pr, nil
}

// MergePR marks PR as merged (idempotent). A merged PR is returned as stored,
// with its original merge time.
func (s *Service) MergePR(ctx context.Context, prID string) (domain.PullRequest, error) {
	prID = strings.TrimSpace(prID)
	if prID == "" {
		return domain.PullRequest{}, domain.ErrInvalidArgument
	}

	var pr domain.PullRequest
	err := s.transactor.Do(ctx, func(txCtx context.Context) error {
		var err error
		pr, err = s.prRepo.GetPRForUpdate(txCtx, prID)
		if err != nil {
			return err
		}

		if !pr.Merge(s.now()) {
			return nil
		}
		return s.prRepo.MarkMerged(txCtx, prID, *pr.MergedAt)
	})
	if err != nil {
		return domain.PullRequest{}, s.fail("merge pull request", err, zap.String("pr_id", prID))
	}

	s.logger.Info("pull request merged", zap.String("pr_id", prID))

	return pr, nil
}

// ReassignReviewer replaces a reviewer with another active member of the
// old reviewer's team. The new reviewer takes the old reviewer's slot.
func (s *Service) ReassignReviewer(
	ctx context.Context,
	prID, oldUserID string,
) (domain.Reassignment, error) {
	prID = strings.TrimSpace(prID)
	oldUserID = strings.TrimSpace(oldUserID)
	if prID == "" || oldUserID == "" {
		return domain.Reassignment{}, domain.ErrInvalidArgument
	}

	fields := []zap.Field{zap.String("pr_id", prID), zap.String("old_user_id", oldUserID)}

	var result domain.Reassignment
	err := s.transactor.Do(ctx, func(txCtx context.Context) error {
		pr, err := s.prRepo.GetPRForUpdate(txCtx, prID)
		if err != nil {
			return err
		}

		if pr.IsMerged() {
			return domain.ErrPRMerged
		}
		if !pr.IsReviewerAssigned(oldUserID) {
			return domain.ErrNotAssigned
		}

		teamName, ok, err := s.membershipRepo.FindActiveTeam(txCtx, oldUserID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrUserNotInTeam
		}

		members, err := s.membershipRepo.ListActiveMembers(txCtx, teamName)
		if err != nil {
			return err
		}

		exclude := append([]string{pr.AuthorID}, pr.AssignedReviewers...)
		newUserID, err := s.assignStrategy.SelectReplacement(members, exclude)
		if err != nil {
			return err
		}

		if err := s.prRepo.ReplaceReviewer(txCtx, prID, oldUserID, newUserID); err != nil {
			return err
		}
		if err := pr.ReplaceReviewer(oldUserID, newUserID); err != nil {
			return err
		}

		result = domain.Reassignment{
			PullRequest: pr,
			OldUserID:   oldUserID,
			NewUserID:   newUserID,
		}
		return nil
	})
	if err != nil {
		return domain.Reassignment{}, s.fail("reassign reviewer", err, fields...)
	}

	s.logger.Info("reviewer reassigned",
		append(fields, zap.String("new_user_id", result.NewUserID))...)

	return result, nil
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
