package team

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pr-reviewer/internal/domain"
	"pr-reviewer/internal/repository/memory"
)

func newService(store *memory.Store) *Service {
	return NewService(store, store, store, store, zap.NewNop())
}

func TestCreateTeam(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "backend", []domain.User{
		{UserID: "u1", Username: "Alice", IsActive: true},
		{UserID: "u2", Username: "Bob", IsActive: false},
	})
	require.NoError(t, err)

	assert.Equal(t, "backend", team.TeamName)
	require.Len(t, team.Members, 2)
	assert.Equal(t, "backend", team.Members[0].TeamName)
	assert.Equal(t, "u1", team.Members[0].UserID)
	assert.False(t, team.Members[1].IsActive)

	got, err := svc.GetTeam(ctx, "backend")
	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "u1", got.Members[0].UserID)
}

func TestCreateTeam_EmptyMembers(t *testing.T) {
	svc := newService(memory.NewStore())

	team, err := svc.CreateTeam(context.Background(), "empty", nil)
	require.NoError(t, err)
	assert.Empty(t, team.Members)

	got, err := svc.GetTeam(context.Background(), "empty")
	require.NoError(t, err)
	assert.Empty(t, got.Members)
}

func TestCreateTeam_Exists(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, "backend", []domain.User{{UserID: "u1", Username: "Alice", IsActive: true}})
	require.NoError(t, err)

	_, err = svc.CreateTeam(ctx, "backend", []domain.User{{UserID: "u9", Username: "Nine", IsActive: true}})
	assert.ErrorIs(t, err, domain.ErrTeamExists)

	_, err = store.GetUser(ctx, "u9")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateTeam_UpsertsExistingUser(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, "backend", []domain.User{{UserID: "u1", Username: "Alice", IsActive: true}})
	require.NoError(t, err)

	_, err = svc.CreateTeam(ctx, "frontend", []domain.User{{UserID: "u1", Username: "Alicia", IsActive: true}})
	require.NoError(t, err)

	user, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.Username)

	teamName, ok, err := store.FindActiveTeam(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "backend", teamName)
}

func TestCreateTeam_DuplicateMemberRollsBack(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, "backend", []domain.User{
		{UserID: "u1", Username: "Alice", IsActive: true},
		{UserID: "u1", Username: "Alice", IsActive: true},
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeIntegrity, domain.GetErrorCode(err))

	exists, err := store.TeamExists(ctx, "backend")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateTeam_InvalidArgument(t *testing.T) {
	svc := newService(memory.NewStore())

	_, err := svc.CreateTeam(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.CreateTeam(context.Background(), "backend", []domain.User{{UserID: "u1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGetTeam_NotFound(t *testing.T) {
	_, err := newService(memory.NewStore()).GetTeam(context.Background(), "ghosts")
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
}
