package assignment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pr-reviewer/internal/domain"
)

func members(ids ...string) []domain.TeamMember {
	out := make([]domain.TeamMember, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.TeamMember{UserID: id, TeamName: "backend", Username: "name-" + id, IsActive: true})
	}
	return out
}

func TestSelectReviewers_FirstMatch(t *testing.T) {
	s := NewStrategy(nil, 0)

	tests := []struct {
		name    string
		members []domain.TeamMember
		author  string
		want    []string
	}{
		{"takes first two after author", members("u1", "u2", "u3", "u4"), "u1", []string{"u2", "u3"}},
		{"author in the middle", members("u2", "u1", "u3"), "u1", []string{"u2", "u3"}},
		{"single candidate", members("u1", "u2"), "u1", []string{"u2"}},
		{"author alone", members("u1"), "u1", []string{}},
		{"empty team", nil, "u1", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.SelectReviewers(tt.members, tt.author))
		})
	}
}

func TestSelectReviewers_SkipsInactive(t *testing.T) {
	team := members("u1", "u2", "u3", "u4")
	team[1].IsActive = false

	got := NewStrategy(FirstMatch{}, 2).SelectReviewers(team, "u1")
	assert.Equal(t, []string{"u3", "u4"}, got)
}

func TestSelectReviewers_MaxReviewers(t *testing.T) {
	s := NewStrategy(FirstMatch{}, 3)
	assert.Equal(t, 3, s.MaxReviewers())
	assert.Equal(t, []string{"u2", "u3", "u4"}, s.SelectReviewers(members("u1", "u2", "u3", "u4", "u5"), "u1"))
}

func TestSelectReplacement(t *testing.T) {
	s := NewStrategy(nil, 0)

	got, err := s.SelectReplacement(members("u1", "u2", "u3", "u4"), []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	assert.Equal(t, "u4", got)

	_, err = s.SelectReplacement(members("u1", "u2", "u3"), []string{"u1", "u2", "u3"})
	assert.ErrorIs(t, err, domain.ErrNoCandidate)
}

func TestShuffle_Deterministic(t *testing.T) {
	team := members("u1", "u2", "u3", "u4", "u5", "u6")

	a := NewStrategyWithSource(rand.NewSource(42)).SelectReviewers(team, "u1")
	b := NewStrategyWithSource(rand.NewSource(42)).SelectReviewers(team, "u1")

	require.Len(t, a, 2)
	assert.Equal(t, a, b)
	assert.NotContains(t, a, "u1")
	assert.NotEqual(t, a[0], a[1])
}

func TestShuffle_DoesNotReorderInput(t *testing.T) {
	team := members("u1", "u2", "u3", "u4")
	NewShuffle(rand.NewSource(7)).Select(team, 2)

	assert.Equal(t, members("u1", "u2", "u3", "u4"), team)
}
