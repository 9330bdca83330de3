package domain

import (
	"fmt"
	"time"
)

// MaxReviewers is the default number of reviewers assigned on creation.
const MaxReviewers = 2

// PRStatus is the lifecycle state of a pull request. OPEN -> MERGED only.
type PRStatus uint8

const (
	PRStatusOpen PRStatus = iota + 1
	PRStatusMerged
)

func (s PRStatus) String() string {
	switch s {
	case PRStatusOpen:
		return "OPEN"
	case PRStatusMerged:
		return "MERGED"
	default:
		return fmt.Sprintf("PRStatus(%d)", uint8(s))
	}
}

// ParsePRStatus is the inverse of String.
func ParsePRStatus(s string) (PRStatus, error) {
	switch s {
	case "OPEN":
		return PRStatusOpen, nil
	case "MERGED":
		return PRStatusMerged, nil
	default:
		return 0, fmt.Errorf("unknown pull request status %q", s)
	}
}

func (s PRStatus) MarshalText() ([]byte, error) {
	if s != PRStatusOpen && s != PRStatusMerged {
		return nil, fmt.Errorf("invalid pull request status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *PRStatus) UnmarshalText(text []byte) error {
	parsed, err := ParsePRStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type PullRequest struct {
	PullRequestID     string
	PullRequestName   string
	AuthorID          string
	Status            PRStatus
	AssignedReviewers []string
	CreatedAt         time.Time
	MergedAt          *time.Time
}

func NewPullRequest(prID, prName, authorID string) PullRequest {
	return PullRequest{
		PullRequestID:     prID,
		PullRequestName:   prName,
		AuthorID:          authorID,
		Status:            PRStatusOpen,
		AssignedReviewers: make([]string, 0),
		CreatedAt:         storageTime(time.Now()),
	}
}

// storageTime drops what PostgreSQL cannot keep, so a value reads back equal.
func storageTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func (pr *PullRequest) IsMerged() bool {
	return pr.Status == PRStatusMerged
}

// Merge moves the PR to MERGED and stamps MergedAt. It reports whether the
// state changed; merging an already merged PR keeps the original timestamp.
func (pr *PullRequest) Merge(at time.Time) bool {
	if pr.IsMerged() {
		return false
	}
	pr.Status = PRStatusMerged
	at = storageTime(at)
	pr.MergedAt = &at
	return true
}

func (pr *PullRequest) IsReviewerAssigned(userID string) bool {
	for _, rid := range pr.AssignedReviewers {
		if rid == userID {
			return true
		}
	}
	return false
}

// ReplaceReviewer swaps oldUserID for newUserID in the same slot.
func (pr *PullRequest) ReplaceReviewer(oldUserID, newUserID string) error {
	if pr.IsMerged() {
		return ErrPRMerged
	}
	for i, rid := range pr.AssignedReviewers {
		if rid == oldUserID {
			pr.AssignedReviewers[i] = newUserID
			return nil
		}
	}
	return ErrNotAssigned
}

// Reassignment describes reviewer replacement details.
type Reassignment struct {
	PullRequest PullRequest
	OldUserID   string
	NewUserID   string
}
