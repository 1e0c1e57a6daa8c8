package doubt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tutorhub/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.now = time.Now().UTC()
}

func (s *InMemoryStoreSuite) mustCreate(title string, createdAt time.Time) *Doubt {
	d, err := New(title, "details", SubjectMathematics, DifficultyEasy, 10, "student-1", "Asha", createdAt)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), d))
	return d
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	d := s.mustCreate("first", s.now)

	found, err := s.store.FindByID(ctx, d.ID.String())
	s.NoError(err)
	s.Equal(d.ID, found.ID)

	s.Run("duplicate id conflicts", func() {
		err := s.store.Create(ctx, d)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.FindByID(ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned record is a copy", func() {
		found.Title = "mutated"
		again, err := s.store.FindByID(ctx, d.ID.String())
		s.NoError(err)
		s.Equal("first", again.Title)
	})
}

func (s *InMemoryStoreSuite) TestListOrdering() {
	ctx := context.Background()

	oldest := s.mustCreate("oldest", s.now.Add(-2*time.Hour))
	newest := s.mustCreate("newest", s.now)
	middle := s.mustCreate("middle", s.now.Add(-time.Hour))

	listed, err := s.store.List(ctx, Filter{})
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	s.Equal(newest.ID, listed[0].ID)
	s.Equal(middle.ID, listed[1].ID)
	s.Equal(oldest.ID, listed[2].ID)
}

func (s *InMemoryStoreSuite) TestListFiltering() {
	ctx := context.Background()

	open := s.mustCreate("binary search trees", s.now)
	claimed := s.mustCreate("sorting algorithms", s.now.Add(-time.Minute))
	_, err := s.store.Claim(ctx, claimed.ID.String(), "tutor-1", "Ben", s.now)
	s.Require().NoError(err)

	listed, err := s.store.List(ctx, Filter{Status: string(StatusOpen)})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(open.ID, listed[0].ID)

	listed, err = s.store.List(ctx, Filter{Search: "SORTING"})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(claimed.ID, listed[0].ID)

	listed, err = s.store.List(ctx, Filter{Search: "nothing matches this"})
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *InMemoryStoreSuite) TestClaim() {
	ctx := context.Background()
	d := s.mustCreate("claimable", s.now)

	s.Run("claim transitions to in_progress", func() {
		claimed, err := s.store.Claim(ctx, d.ID.String(), "tutor-1", "Ben", s.now)
		s.Require().NoError(err)
		s.Equal(StatusInProgress, claimed.Status)
		s.Equal("tutor-1", claimed.TutorID)
		s.Equal("Ben", claimed.TutorName)
	})

	s.Run("second claim loses", func() {
		_, err := s.store.Claim(ctx, d.ID.String(), "tutor-2", "Cara", s.now)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Claim(ctx, "missing", "tutor-1", "Ben", s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestConcurrentClaimExactlyOneWinner() {
	ctx := context.Background()
	d := s.mustCreate("contested", s.now)

	const tutors = 16
	var wg sync.WaitGroup
	wins := make(chan string, tutors)
	for i := 0; i < tutors; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tutorID := string(rune('a' + n))
			if _, err := s.store.Claim(ctx, d.ID.String(), tutorID, tutorID, s.now); err == nil {
				wins <- tutorID
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	s.Require().Len(winners, 1)

	final, err := s.store.FindByID(ctx, d.ID.String())
	s.Require().NoError(err)
	s.Equal(StatusInProgress, final.Status)
	s.Equal(winners[0], final.TutorID)
}

func (s *InMemoryStoreSuite) TestResolve() {
	ctx := context.Background()
	d := s.mustCreate("resolvable", s.now)

	s.Run("resolving an open doubt fails", func() {
		_, err := s.store.Resolve(ctx, d.ID.String(), "tutor-1", nil, s.now)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	_, err := s.store.Claim(ctx, d.ID.String(), "tutor-1", "Ben", s.now)
	s.Require().NoError(err)

	s.Run("wrong tutor cannot resolve", func() {
		_, err := s.store.Resolve(ctx, d.ID.String(), "tutor-2", nil, s.now)
		s.ErrorIs(err, sentinel.ErrNotOwner)
	})

	s.Run("assigned tutor resolves with rating", func() {
		rating := 5
		resolved, err := s.store.Resolve(ctx, d.ID.String(), "tutor-1", &rating, s.now)
		s.Require().NoError(err)
		s.Equal(StatusResolved, resolved.Status)
		s.Require().NotNil(resolved.Rating)
		s.Equal(5, *resolved.Rating)
	})

	s.Run("resolved is terminal", func() {
		_, err := s.store.Resolve(ctx, d.ID.String(), "tutor-1", nil, s.now)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *InMemoryStoreSuite) TestIncrementResponses() {
	ctx := context.Background()
	d := s.mustCreate("chatty", s.now)

	s.NoError(s.store.IncrementResponses(ctx, d.ID.String(), s.now))
	s.NoError(s.store.IncrementResponses(ctx, d.ID.String(), s.now))

	found, err := s.store.FindByID(ctx, d.ID.String())
	s.Require().NoError(err)
	s.Equal(2, found.Responses)

	s.ErrorIs(s.store.IncrementResponses(ctx, "missing", s.now), sentinel.ErrNotFound)
}
