// Package memory is an in-process implementation of the repository port.
// A single Store serves every repository interface and doubles as the
// transactioner: Do holds the store lock for the whole callback and
// restores a snapshot when the callback fails.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
	"pr-reviewer/internal/repository"
)

var (
	_ repository.TeamRepository       = (*Store)(nil)
	_ repository.UserRepository       = (*Store)(nil)
	_ repository.MembershipRepository = (*Store)(nil)
	_ repository.PRRepository         = (*Store)(nil)
	_ repository.StatsRepository      = (*Store)(nil)
	_ db.Transactioner                = (*Store)(nil)
)

type txKey struct{}

type state struct {
	users   map[string]domain.User
	teams   map[string]domain.Team
	members []domain.TeamMember
	prs     map[string]domain.PullRequest
	prOrder []string
}

func newState() *state {
	return &state{
		users: make(map[string]domain.User),
		teams: make(map[string]domain.Team),
		prs:   make(map[string]domain.PullRequest),
	}
}

func (st *state) clone() *state {
	c := &state{
		users:   make(map[string]domain.User, len(st.users)),
		teams:   make(map[string]domain.Team, len(st.teams)),
		members: append([]domain.TeamMember(nil), st.members...),
		prs:     make(map[string]domain.PullRequest, len(st.prs)),
		prOrder: append([]string(nil), st.prOrder...),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.teams {
		c.teams[k] = v
	}
	for k, v := range st.prs {
		c.prs[k] = clonePR(v)
	}
	return c
}

type Store struct {
	mu sync.RWMutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// Do runs fn with the store locked. Any error restores the state seen on entry.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if !s.inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.st)
}

func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}

// --- teams ---

func (s *Store) CreateTeam(ctx context.Context, team domain.Team) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.teams[team.TeamName]; ok {
			return fmt.Errorf("%w: %s", domain.ErrTeamExists, team.TeamName)
		}
		team.Members = nil
		st.teams[team.TeamName] = team
		return nil
	})
}

func (s *Store) GetTeam(ctx context.Context, teamName string) (domain.Team, error) {
	var team domain.Team
	err := s.read(ctx, func(st *state) error {
		t, ok := st.teams[teamName]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrTeamNotFound, teamName)
		}
		team = t
		return nil
	})
	return team, err
}

func (s *Store) TeamExists(ctx context.Context, teamName string) (bool, error) {
	var exists bool
	err := s.read(ctx, func(st *state) error {
		_, exists = st.teams[teamName]
		return nil
	})
	return exists, err
}

// --- users ---

func (s *Store) UpsertUser(ctx context.Context, user domain.User) error {
	return s.write(ctx, func(st *state) error {
		user.TeamName = ""
		if existing, ok := st.users[user.UserID]; ok {
			user.CreatedAt = existing.CreatedAt
		}
		st.users[user.UserID] = user
		return nil
	})
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	err := s.read(ctx, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}
		user = u
		return nil
	})
	return user, err
}

func (s *Store) GetActiveUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !user.IsActive {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return user, nil
}

func (s *Store) SetUserActive(ctx context.Context, userID string, isActive bool) (domain.User, error) {
	var user domain.User
	err := s.write(ctx, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}
		u.SetIsActive(isActive)
		st.users[userID] = u
		user = u
		return nil
	})
	return user, err
}

// --- memberships ---

func (s *Store) AddMember(ctx context.Context, member domain.TeamMember) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.users[member.UserID]; !ok {
			return domain.Integrity(fmt.Errorf("membership references unknown user %s", member.UserID))
		}
		if _, ok := st.teams[member.TeamName]; !ok {
			return domain.Integrity(fmt.Errorf("membership references unknown team %s", member.TeamName))
		}
		for _, m := range st.members {
			if m.UserID == member.UserID && m.TeamName == member.TeamName {
				return domain.Integrity(fmt.Errorf("duplicate membership (%s, %s)", member.UserID, member.TeamName))
			}
		}
		st.members = append(st.members, member)
		return nil
	})
}

func (s *Store) ListActiveMembers(ctx context.Context, teamName string) ([]domain.TeamMember, error) {
	members := make([]domain.TeamMember, 0)
	err := s.read(ctx, func(st *state) error {
		for _, m := range st.members {
			if m.TeamName == teamName && m.IsActive {
				members = append(members, m)
			}
		}
		return nil
	})
	return members, err
}

func (s *Store) SetMembershipsActive(ctx context.Context, userID string, isActive bool) error {
	return s.write(ctx, func(st *state) error {
		for i := range st.members {
			if st.members[i].UserID == userID {
				st.members[i].IsActive = isActive
			}
		}
		return nil
	})
}

func (s *Store) FindActiveTeam(ctx context.Context, userID string) (string, bool, error) {
	var (
		teamName string
		found    bool
	)
	err := s.read(ctx, func(st *state) error {
		for _, m := range st.members {
			if m.UserID == userID && m.IsActive {
				teamName, found = m.TeamName, true
				return nil
			}
		}
		return nil
	})
	return teamName, found, err
}

// --- pull requests ---

func (s *Store) CreatePR(ctx context.Context, pr domain.PullRequest) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.prs[pr.PullRequestID]; ok {
			return fmt.Errorf("%w: %s", domain.ErrPRExists, pr.PullRequestID)
		}
		if _, ok := st.users[pr.AuthorID]; !ok {
			return domain.Integrity(fmt.Errorf("pull request references unknown author %s", pr.AuthorID))
		}
		pr.AssignedReviewers = make([]string, 0)
		st.prs[pr.PullRequestID] = pr
		st.prOrder = append(st.prOrder, pr.PullRequestID)
		return nil
	})
}

func (s *Store) PRExists(ctx context.Context, prID string) (bool, error) {
	var exists bool
	err := s.read(ctx, func(st *state) error {
		_, exists = st.prs[prID]
		return nil
	})
	return exists, err
}

func (s *Store) GetPR(ctx context.Context, prID string) (domain.PullRequest, error) {
	var pr domain.PullRequest
	err := s.read(ctx, func(st *state) error {
		p, ok := st.prs[prID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrPRNotFound, prID)
		}
		pr = clonePR(p)
		return nil
	})
	return pr, err
}

// GetPRForUpdate equals GetPR: inside Do the whole store is already exclusive.
func (s *Store) GetPRForUpdate(ctx context.Context, prID string) (domain.PullRequest, error) {
	return s.GetPR(ctx, prID)
}

func (s *Store) MarkMerged(ctx context.Context, prID string, mergedAt time.Time) error {
	return s.write(ctx, func(st *state) error {
		pr, ok := st.prs[prID]
		if !ok || pr.IsMerged() {
			return fmt.Errorf("%w: %s", domain.ErrPRNotFound, prID)
		}
		pr.Merge(mergedAt)
		st.prs[prID] = pr
		return nil
	})
}

func (s *Store) AssignReviewers(ctx context.Context, prID string, reviewers []string) error {
	return s.write(ctx, func(st *state) error {
		pr, ok := st.prs[prID]
		if !ok {
			return domain.Integrity(fmt.Errorf("reviewer references unknown pull request %s", prID))
		}
		for _, userID := range reviewers {
			if _, ok := st.users[userID]; !ok {
				return domain.Integrity(fmt.Errorf("reviewer references unknown user %s", userID))
			}
			if pr.IsReviewerAssigned(userID) {
				return domain.Integrity(fmt.Errorf("duplicate reviewer (%s, %s)", prID, userID))
			}
			pr.AssignedReviewers = append(pr.AssignedReviewers, userID)
		}
		st.prs[prID] = pr
		return nil
	})
}

func (s *Store) ReplaceReviewer(ctx context.Context, prID, oldUserID, newUserID string) error {
	return s.write(ctx, func(st *state) error {
		pr, ok := st.prs[prID]
		if !ok || !pr.IsReviewerAssigned(oldUserID) {
			return fmt.Errorf("%w: %s on %s", domain.ErrNotAssigned, oldUserID, prID)
		}
		if _, ok := st.users[newUserID]; !ok {
			return domain.Integrity(fmt.Errorf("reviewer references unknown user %s", newUserID))
		}
		if pr.IsReviewerAssigned(newUserID) {
			return domain.Integrity(fmt.Errorf("duplicate reviewer (%s, %s)", prID, newUserID))
		}
		for i, rid := range pr.AssignedReviewers {
			if rid == oldUserID {
				pr.AssignedReviewers[i] = newUserID
			}
		}
		st.prs[prID] = pr
		return nil
	})
}

func (s *Store) GetPRsByReviewer(ctx context.Context, userID string) ([]domain.PullRequest, error) {
	prs := make([]domain.PullRequest, 0)
	err := s.read(ctx, func(st *state) error {
		for _, id := range st.prOrder {
			pr := st.prs[id]
			if !pr.IsReviewerAssigned(userID) {
				continue
			}
			pr.AssignedReviewers = make([]string, 0)
			prs = append(prs, pr)
		}
		return nil
	})
	return prs, err
}

// --- stats ---

func (s *Store) GetStats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.read(ctx, func(st *state) error {
		stats.TotalUsers = len(st.users)
		stats.TotalTeams = len(st.teams)
		stats.TotalPRs = len(st.prs)

		byUser := make(map[string]int)
		stats.PRAssignments = make([]domain.PRAssignmentCount, 0, len(st.prs))
		for _, pr := range st.prs {
			if pr.IsMerged() {
				stats.MergedPRs++
			} else {
				stats.OpenPRs++
			}
			for _, rid := range pr.AssignedReviewers {
				byUser[rid]++
			}
			stats.PRAssignments = append(stats.PRAssignments, domain.PRAssignmentCount{
				PullRequestID:  pr.PullRequestID,
				ReviewersCount: len(pr.AssignedReviewers),
			})
		}

		stats.UserAssignments = make([]domain.UserAssignmentCount, 0, len(byUser))
		for id, count := range byUser {
			stats.UserAssignments = append(stats.UserAssignments, domain.UserAssignmentCount{
				UserID:          id,
				AssignmentCount: count,
			})
		}
		return nil
	})
	if err != nil {
		return domain.Stats{}, err
	}

	sort.Slice(stats.UserAssignments, func(i, j int) bool {
		a, b := stats.UserAssignments[i], stats.UserAssignments[j]
		if a.AssignmentCount != b.AssignmentCount {
			return a.AssignmentCount > b.AssignmentCount
		}
		return a.UserID < b.UserID
	})
	sort.Slice(stats.PRAssignments, func(i, j int) bool {
		return stats.PRAssignments[i].PullRequestID < stats.PRAssignments[j].PullRequestID
	})

	return stats, nil
}

func clonePR(pr domain.PullRequest) domain.PullRequest {
	copied := pr
	copied.AssignedReviewers = append(make([]string, 0, len(pr.AssignedReviewers)), pr.AssignedReviewers...)
	if pr.MergedAt != nil {
		at := *pr.MergedAt
		copied.MergedAt = &at
	}
	return copied
}
