package assignment

import (
	"math/rand"
	"sync"

	"pr-reviewer/internal/domain"
)

// Selector picks at most limit members out of an ordered candidate list.
type Selector interface {
	Select(candidates []domain.TeamMember, limit int) []domain.TeamMember
}

// FirstMatch takes candidates in the order the store returned them.
type FirstMatch struct{}

func (FirstMatch) Select(candidates []domain.TeamMember, limit int) []domain.TeamMember {
	if limit > len(candidates) {
		limit = len(candidates)
	}
	return candidates[:limit]
}

// Shuffle picks candidates at random. Safe for concurrent use.
type Shuffle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewShuffle(src rand.Source) *Shuffle {
	return &Shuffle{rng: rand.New(src)}
}

func (s *Shuffle) Select(candidates []domain.TeamMember, limit int) []domain.TeamMember {
	shuffled := append([]domain.TeamMember(nil), candidates...)

	s.mu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	return FirstMatch{}.Select(shuffled, limit)
}

// Strategy implements reviewer selection algorithms
type Strategy struct {
	selector     Selector
	maxReviewers int
}

// NewStrategy creates a strategy. A nil selector means FirstMatch and a
// non-positive maxReviewers means domain.MaxReviewers.
func NewStrategy(selector Selector, maxReviewers int) *Strategy {
	if selector == nil {
		selector = FirstMatch{}
	}
	if maxReviewers <= 0 {
		maxReviewers = domain.MaxReviewers
	}
	return &Strategy{
		selector:     selector,
		maxReviewers: maxReviewers,
	}
}

// NewStrategyWithSource creates a random strategy seeded from src.
func NewStrategyWithSource(src rand.Source) *Strategy {
	return NewStrategy(NewShuffle(src), domain.MaxReviewers)
}

func (s *Strategy) MaxReviewers() int {
	return s.maxReviewers
}

// SelectReviewers selects up to maxReviewers active members, excluding the author.
// Fewer candidates than slots is not an error.
func (s *Strategy) SelectReviewers(members []domain.TeamMember, authorID string) []string {
	candidates := domain.ActiveMembersExcluding(members, authorID)
	return userIDs(s.selector.Select(candidates, s.maxReviewers))
}

// SelectReplacement selects one active member not listed in exclude.
func (s *Strategy) SelectReplacement(members []domain.TeamMember, exclude []string) (string, error) {
	candidates := domain.ActiveMembersExcluding(members, exclude...)
	picked := s.selector.Select(candidates, 1)
	if len(picked) == 0 {
		return "", domain.ErrNoCandidate
	}
	return picked[0].UserID, nil
}

func userIDs(members []domain.TeamMember) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}
