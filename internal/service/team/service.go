package team

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

type teamRepository interface {
	CreateTeam(ctx context.Context, team domain.Team) error
	GetTeam(ctx context.Context, teamName string) (domain.Team, error)
	TeamExists(ctx context.Context, teamName string) (bool, error)
}

type userRepository interface {
	UpsertUser(ctx context.Context, user domain.User) error
}

type membershipRepository interface {
	AddMember(ctx context.Context, member domain.TeamMember) error
	ListActiveMembers(ctx context.Context, teamName string) ([]domain.TeamMember, error)
}

// Service handles team business logic
type Service struct {
	teamRepo       teamRepository
	userRepo       userRepository
	membershipRepo membershipRepository
	transactor     db.Transactioner
	logger         *zap.Logger
}

// NewService creates a new team service
func NewService(
	teamRepo teamRepository,
	userRepo userRepository,
	membershipRepo membershipRepository,
	transactor db.Transactioner,
	logger *zap.Logger,
) *Service {
	return &Service{
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		transactor:     transactor,
		logger:         logger,
	}
}

// CreateTeam creates a team, upserts its users and adds their memberships
// in one transaction. An empty member list is allowed.
func (s *Service) CreateTeam(
	ctx context.Context,
	teamName string,
	members []domain.User,
) (domain.Team, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return domain.Team{}, domain.ErrInvalidArgument
	}

	for i := range members {
		members[i].UserID = strings.TrimSpace(members[i].UserID)
		members[i].Username = strings.TrimSpace(members[i].Username)
		if members[i].UserID == "" || members[i].Username == "" {
			return domain.Team{}, domain.ErrInvalidArgument
		}
	}

	team := domain.NewTeam(teamName, make([]domain.TeamMember, 0, len(members)))

	err := s.transactor.Do(ctx, func(txCtx context.Context) error {
		exists, err := s.teamRepo.TeamExists(txCtx, teamName)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrTeamExists
		}

		if err := s.teamRepo.CreateTeam(txCtx, team); err != nil {
			return err
		}

		for _, m := range members {
			user := domain.NewUser(m.UserID, m.Username, m.IsActive)
			if err := s.userRepo.UpsertUser(txCtx, user); err != nil {
				return err
			}

			membership := user.Membership(teamName)
			if err := s.membershipRepo.AddMember(txCtx, membership); err != nil {
				return err
			}
			team.Members = append(team.Members, membership)
		}

		return nil
	})
	if err != nil {
		return domain.Team{}, s.fail("create team", err, zap.String("team_name", teamName))
	}

	s.logger.Info("team created",
		zap.String("team_name", teamName),
		zap.Int("members", len(team.Members)),
	)

	return team, nil
}

// GetTeam retrieves a team with its active members
func (s *Service) GetTeam(ctx context.Context, teamName string) (domain.Team, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return domain.Team{}, domain.ErrInvalidArgument
	}

	var team domain.Team
	err := s.transactor.Do(ctx, func(txCtx context.Context) error {
		var err error
		team, err = s.teamRepo.GetTeam(txCtx, teamName)
		if err != nil {
			return err
		}

		team.Members, err = s.membershipRepo.ListActiveMembers(txCtx, teamName)
		return err
	})
	if err != nil {
		return domain.Team{}, s.fail("get team", err, zap.String("team_name", teamName))
	}

	return team, nil
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
