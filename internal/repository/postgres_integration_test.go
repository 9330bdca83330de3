//go:build integration

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"pr-reviewer/internal/app"
	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
	"pr-reviewer/internal/service/assignment"
)

type PostgresSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	storage   app.Storage
	services  app.Services
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx, "postgres:16-alpine",
		postgres.WithDatabase("pr_reviewer_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = pgxpool.New(s.ctx, connStr)
	s.Require().NoError(err)
	s.Require().NoError(s.pool.Ping(s.ctx))

	log := zap.NewNop()
	s.Require().NoError(db.Migrate(s.ctx, s.pool, log))

	s.storage = app.PostgresStorage(db.NewContextManager(s.pool, log))
	s.services = app.NewServices(s.storage, assignment.NewStrategy(nil, 0), log)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `
		TRUNCATE pull_request_reviewers, pull_requests, team_members, teams, users RESTART IDENTITY CASCADE
	`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) addTeam(name string, ids ...string) {
	members := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		members = append(members, domain.User{UserID: id, Username: "user-" + id, IsActive: true})
	}
	_, err := s.services.Team.CreateTeam(s.ctx, name, members)
	s.Require().NoError(err)
}

func (s *PostgresSuite) TestTeamLifecycle() {
	s.addTeam("backend", "u3", "u1", "u2")

	team, err := s.services.Team.GetTeam(s.ctx, "backend")
	s.Require().NoError(err)
	s.Require().Len(team.Members, 3)
	s.Equal("u3", team.Members[0].UserID)
	s.Equal("u1", team.Members[1].UserID)

	_, err = s.services.Team.CreateTeam(s.ctx, "backend", nil)
	s.ErrorIs(err, domain.ErrTeamExists)

	_, err = s.services.Team.GetTeam(s.ctx, "nope")
	s.ErrorIs(err, domain.ErrTeamNotFound)
}

func (s *PostgresSuite) TestDuplicateMemberRollsBack() {
	_, err := s.services.Team.CreateTeam(s.ctx, "dup", []domain.User{
		{UserID: "d1", Username: "D", IsActive: true},
		{UserID: "d1", Username: "D", IsActive: true},
	})
	s.Require().Error(err)
	s.Equal(domain.ErrorCodeIntegrity, domain.GetErrorCode(err))

	exists, err := s.storage.Teams.TeamExists(s.ctx, "dup")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresSuite) TestSetIsActivePropagates() {
	s.addTeam("backend", "u1", "u2")
	s.addTeam("frontend", "u1", "u3")

	user, err := s.services.User.SetIsActive(s.ctx, "u1", false)
	s.Require().NoError(err)
	s.False(user.IsActive)
	s.Empty(user.TeamName)

	for _, name := range []string{"backend", "frontend"} {
		members, err := s.storage.Memberships.ListActiveMembers(s.ctx, name)
		s.Require().NoError(err)
		for _, m := range members {
			s.NotEqual("u1", m.UserID)
		}
	}

	user, err = s.services.User.SetIsActive(s.ctx, "u1", true)
	s.Require().NoError(err)
	s.Equal("backend", user.TeamName)
}

func (s *PostgresSuite) TestPullRequestLifecycle() {
	s.addTeam("payments", "u1", "u2", "u3", "u4")

	pr, err := s.services.PR.CreatePR(s.ctx, "pr-1001", "Add search", "u1")
	s.Require().NoError(err)
	s.Equal([]string{"u2", "u3"}, pr.AssignedReviewers)

	_, err = s.services.PR.CreatePR(s.ctx, "pr-1001", "Again", "u2")
	s.ErrorIs(err, domain.ErrPRExists)

	result, err := s.services.PR.ReassignReviewer(s.ctx, "pr-1001", "u2")
	s.Require().NoError(err)
	s.Equal("u4", result.NewUserID)

	stored, err := s.storage.PRs.GetPR(s.ctx, "pr-1001")
	s.Require().NoError(err)
	s.Equal([]string{"u4", "u3"}, stored.AssignedReviewers)

	first, err := s.services.PR.MergePR(s.ctx, "pr-1001")
	s.Require().NoError(err)
	second, err := s.services.PR.MergePR(s.ctx, "pr-1001")
	s.Require().NoError(err)
	s.Equal(domain.PRStatusMerged, second.Status)
	s.Equal(first.AssignedReviewers, second.AssignedReviewers)
	s.Require().NotNil(second.MergedAt)
	s.True(first.MergedAt.Equal(*second.MergedAt))

	_, err = s.services.PR.ReassignReviewer(s.ctx, "pr-1001", "u3")
	s.ErrorIs(err, domain.ErrPRMerged)

	prs, err := s.services.User.GetPRsByReviewer(s.ctx, "u4")
	s.Require().NoError(err)
	s.Require().Len(prs, 1)
	s.Equal(domain.PRStatusMerged, prs[0].Status)

	_, err = s.services.User.GetPRsByReviewer(s.ctx, "u999")
	s.ErrorIs(err, domain.ErrUserNotFound)

	stats, err := s.services.Stats.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, stats.TotalUsers)
	s.Equal(1, stats.MergedPRs)
	s.Equal([]domain.PRAssignmentCount{{PullRequestID: "pr-1001", ReviewersCount: 2}}, stats.PRAssignments)
}

func (s *PostgresSuite) TestCreatePRAuthorChecks() {
	s.addTeam("backend", "u1", "u2")

	_, err := s.services.PR.CreatePR(s.ctx, "pr-1", "x", "ghost")
	s.ErrorIs(err, domain.ErrAuthorNotFound)

	_, err = s.services.User.SetIsActive(s.ctx, "u2", false)
	s.Require().NoError(err)
	_, err = s.services.PR.CreatePR(s.ctx, "pr-2", "x", "u2")
	s.ErrorIs(err, domain.ErrAuthorNotFound)

	pr, err := s.services.PR.CreatePR(s.ctx, "pr-3", "x", "u1")
	s.Require().NoError(err)
	s.Empty(pr.AssignedReviewers)
}

func (s *PostgresSuite) TestConcurrentReassignmentsSerialize() {
	s.addTeam("big", "u1", "u2", "u3", "u4", "u5", "u6")

	_, err := s.services.PR.CreatePR(s.ctx, "pr-1", "Busy", "u1")
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, old := range []string{"u2", "u3"} {
		wg.Add(1)
		go func(i int, old string) {
			defer wg.Done()
			_, errs[i] = s.services.PR.ReassignReviewer(s.ctx, "pr-1", old)
		}(i, old)
	}
	wg.Wait()

	for _, err := range errs {
		s.NoError(err)
	}

	pr, err := s.storage.PRs.GetPR(s.ctx, "pr-1")
	s.Require().NoError(err)
	s.Require().Len(pr.AssignedReviewers, 2)
	s.NotEqual(pr.AssignedReviewers[0], pr.AssignedReviewers[1])
	s.NotContains(pr.AssignedReviewers, "u1")
}
