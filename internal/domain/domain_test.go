package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPRStatusText(t *testing.T) {
	data, err := json.Marshal(struct {
		Status PRStatus `json:"status"`
	}{PRStatusMerged})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"MERGED"}`, string(data))

	var s PRStatus
	require.NoError(t, s.UnmarshalText([]byte("OPEN")))
	assert.Equal(t, PRStatusOpen, s)

	assert.Error(t, s.UnmarshalText([]byte("CLOSED")))

	_, err = PRStatus(0).MarshalText()
	assert.Error(t, err)
}

func TestMerge_KeepsFirstTimestamp(t *testing.T) {
	pr := NewPullRequest("pr-1", "x", "u1")
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))

	assert.True(t, pr.Merge(first))
	assert.False(t, pr.Merge(first.Add(time.Hour)))

	require.NotNil(t, pr.MergedAt)
	assert.True(t, pr.MergedAt.Equal(first))
	assert.Equal(t, time.UTC, pr.MergedAt.Location())
}

func TestReplaceReviewer(t *testing.T) {
	pr := NewPullRequest("pr-1", "x", "u1")
	pr.AssignedReviewers = []string{"u2", "u3"}

	require.NoError(t, pr.ReplaceReviewer("u2", "u4"))
	assert.Equal(t, []string{"u4", "u3"}, pr.AssignedReviewers)

	assert.ErrorIs(t, pr.ReplaceReviewer("u2", "u5"), ErrNotAssigned)

	pr.Merge(time.Now())
	assert.ErrorIs(t, pr.ReplaceReviewer("u3", "u5"), ErrPRMerged)
}

func TestActiveMembersExcluding(t *testing.T) {
	members := []TeamMember{
		{UserID: "u1", IsActive: true},
		{UserID: "u2", IsActive: false},
		{UserID: "u3", IsActive: true},
		{UserID: "u4", IsActive: true},
	}

	got := ActiveMembersExcluding(members, "u1", "u4")
	require.Len(t, got, 1)
	assert.Equal(t, "u3", got[0].UserID)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		code   ErrorCode
		status int
	}{
		{fmt.Errorf("%w: backend", ErrTeamExists), ErrorCodeTeamExists, 400},
		{ErrInvalidArgument, ErrorCodeInvalidArgument, 400},
		{ErrPRExists, ErrorCodePRExists, 409},
		{ErrNoCandidate, ErrorCodeNoCandidate, 409},
		{Integrity(errors.New("23505")), ErrorCodeIntegrity, 409},
		{ErrUserNotInTeam, ErrorCodeUserNotInTeam, 404},
		{ErrAuthorNotFound, ErrorCodeAuthorNotFound, 404},
		{errors.New("boom"), ErrorCodeServerError, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.NoError(t, Sanitize(nil))
	assert.Same(t, ErrPRMerged, Sanitize(ErrPRMerged))

	err := Sanitize(errors.New("pq: relation does not exist"))
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, ErrInternal.Error(), PublicMessage(err))

	assert.Equal(t, err, Sanitize(err))
}
