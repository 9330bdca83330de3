package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pr-reviewer/internal/domain"
)

func seed(t *testing.T, s *Store, teamName string, ids ...string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.CreateTeam(ctx, domain.NewTeam(teamName, nil)))
	for _, id := range ids {
		u := domain.NewUser(id, "name-"+id, true)
		require.NoError(t, s.UpsertUser(ctx, u))
		require.NoError(t, s.AddMember(ctx, u.Membership(teamName)))
	}
}

func TestDo_RollsBackOnError(t *testing.T) {
	s := NewStore()
	seed(t, s, "backend", "u1", "u2")
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Do(ctx, func(txCtx context.Context) error {
		require.NoError(t, s.CreatePR(txCtx, domain.NewPullRequest("pr-1", "x", "u1")))
		require.NoError(t, s.AssignReviewers(txCtx, "pr-1", []string{"u2"}))
		_, err := s.SetUserActive(txCtx, "u2", false)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.PRExists(ctx, "pr-1")
	require.NoError(t, err)
	assert.False(t, exists)

	user, err := s.GetUser(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, user.IsActive)
}

func TestDo_NestedJoinsOuter(t *testing.T) {
	s := NewStore()
	seed(t, s, "backend", "u1")
	ctx := context.Background()

	err := s.Do(ctx, func(txCtx context.Context) error {
		return s.Do(txCtx, func(inner context.Context) error {
			return s.CreatePR(inner, domain.NewPullRequest("pr-1", "x", "u1"))
		})
	})
	require.NoError(t, err)

	exists, err := s.PRExists(ctx, "pr-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDo_SerializesConcurrentTransactions(t *testing.T) {
	s := NewStore()
	seed(t, s, "backend", "u1")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Do(ctx, func(txCtx context.Context) error {
				exists, err := s.PRExists(txCtx, "pr-1")
				if err != nil {
					return err
				}
				if exists {
					return domain.ErrPRExists
				}
				return s.CreatePR(txCtx, domain.NewPullRequest("pr-1", "x", "u1"))
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrPRExists)
	}
	assert.Equal(t, 1, created)
}

func TestMembershipOrderAndActiveTeam(t *testing.T) {
	s := NewStore()
	seed(t, s, "backend", "u3", "u1", "u2")
	seed(t, s, "frontend")
	ctx := context.Background()

	u1, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, s.AddMember(ctx, u1.Membership("frontend")))

	members, err := s.ListActiveMembers(ctx, "backend")
	require.NoError(t, err)
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	assert.Equal(t, []string{"u3", "u1", "u2"}, ids)

	teamName, ok, err := s.FindActiveTeam(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "backend", teamName)

	_, ok, err = s.FindActiveTeam(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIntegrityViolations(t *testing.T) {
	s := NewStore()
	seed(t, s, "backend", "u1", "u2")
	ctx := context.Background()

	u1, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	err = s.AddMember(ctx, u1.Membership("backend"))
	assert.ErrorIs(t, err, domain.ErrIntegrity)

	err = s.AddMember(ctx, u1.Membership("nope"))
	assert.ErrorIs(t, err, domain.ErrIntegrity)

	err = s.CreateTeam(ctx, domain.NewTeam("backend", nil))
	assert.ErrorIs(t, err, domain.ErrTeamExists)

	require.NoError(t, s.CreatePR(ctx, domain.NewPullRequest("pr-1", "x", "u1")))
	assert.ErrorIs(t, s.CreatePR(ctx, domain.NewPullRequest("pr-1", "x", "u1")), domain.ErrPRExists)
	assert.ErrorIs(t, s.CreatePR(ctx, domain.NewPullRequest("pr-2", "x", "ghost")), domain.ErrIntegrity)

	require.NoError(t, s.AssignReviewers(ctx, "pr-1", []string{"u2"}))
	assert.ErrorIs(t, s.AssignReviewers(ctx, "pr-1", []string{"u2"}), domain.ErrIntegrity)
	assert.ErrorIs(t, s.ReplaceReviewer(ctx, "pr-1", "u1", "u2"), domain.ErrNotAssigned)
}

func TestMarkMerged(t *testing.T) {
	s := NewStore()
	seed(t, s, "backend", "u1")
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreatePR(ctx, domain.NewPullRequest("pr-1", "x", "u1")))
	require.NoError(t, s.MarkMerged(ctx, "pr-1", at))
	assert.ErrorIs(t, s.MarkMerged(ctx, "pr-1", at.Add(time.Hour)), domain.ErrPRNotFound)

	pr, err := s.GetPR(ctx, "pr-1")
	require.NoError(t, err)
	assert.True(t, pr.IsMerged())
	require.NotNil(t, pr.MergedAt)
	assert.Equal(t, at, *pr.MergedAt)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := NewStore()
	seed(t, s, "backend", "u1", "u2", "u3")
	ctx := context.Background()

	require.NoError(t, s.CreatePR(ctx, domain.NewPullRequest("pr-1", "x", "u1")))
	require.NoError(t, s.AssignReviewers(ctx, "pr-1", []string{"u2"}))

	pr, err := s.GetPR(ctx, "pr-1")
	require.NoError(t, err)
	pr.AssignedReviewers[0] = "u3"

	again, err := s.GetPR(ctx, "pr-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, again.AssignedReviewers)
}
