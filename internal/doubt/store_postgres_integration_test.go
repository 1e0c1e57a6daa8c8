//go:build integration

package doubt_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tutorhub/internal/doubt"
	"tutorhub/pkg/platform/sentinel"
	"tutorhub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *doubt.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = doubt.NewPostgresStore(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "doubts"))
}

func (s *PostgresStoreSuite) mustCreate(title string, createdAt time.Time) *doubt.Doubt {
	d, err := doubt.New(title, "details", doubt.SubjectMathematics, doubt.DifficultyEasy, 10, "student-1", "Asha", createdAt)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), d))
	return d
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	d := s.mustCreate("roundtrip", time.Now().UTC())

	found, err := s.store.FindByID(ctx, d.ID.String())
	s.Require().NoError(err)
	s.Equal(d.Title, found.Title)
	s.Equal(doubt.StatusOpen, found.Status)
	s.Empty(found.TutorID)
	s.Nil(found.Rating)

	s.ErrorIs(s.store.Create(ctx, d), sentinel.ErrConflict)

	_, err = s.store.FindByID(ctx, "1e7b5f3a-0000-0000-0000-000000000000")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestMalformedID verifies that ids which fail the uuid cast behave like
// unknown ids on every lookup and transition. Handlers pass URL parameters
// straight through, so these must not surface as internal errors.
func (s *PostgresStoreSuite) TestMalformedID() {
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.store.FindByID(ctx, "no-such-id")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Claim(ctx, "no-such-id", "tutor-1", "Ben", now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Resolve(ctx, "no-such-id", "tutor-1", nil, now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.IncrementResponses(ctx, "no-such-id", now), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrderingAndFilters() {
	ctx := context.Background()
	now := time.Now().UTC()

	oldest := s.mustCreate("binary trees", now.Add(-2*time.Hour))
	newest := s.mustCreate("graph traversal", now)

	listed, err := s.store.List(ctx, doubt.Filter{})
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(newest.ID, listed[0].ID)
	s.Equal(oldest.ID, listed[1].ID)

	listed, err = s.store.List(ctx, doubt.Filter{Search: "GRAPH"})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(newest.ID, listed[0].ID)

	// ILIKE metacharacters in user input must match literally.
	listed, err = s.store.List(ctx, doubt.Filter{Search: "100%"})
	s.Require().NoError(err)
	s.Empty(listed)

	listed, err = s.store.List(ctx, doubt.Filter{Subject: "all", Status: "all", Difficulty: "all"})
	s.Require().NoError(err)
	s.Len(listed, 2)
}

// TestConcurrentClaim verifies the conditional update: many racing claims on
// one open doubt yield exactly one winner, the rest lose with invalid state.
func (s *PostgresStoreSuite) TestConcurrentClaim() {
	ctx := context.Background()
	d := s.mustCreate("contested", time.Now().UTC())

	const goroutines = 32
	var wg sync.WaitGroup
	var wins, losses atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tutorID := "tutor-" + string(rune('a'+n%26))
			_, err := s.store.Claim(ctx, d.ID.String(), tutorID, tutorID, time.Now().UTC())
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				losses.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one claim should win")
	s.Equal(int32(goroutines-1), losses.Load())

	final, err := s.store.FindByID(ctx, d.ID.String())
	s.Require().NoError(err)
	s.Equal(doubt.StatusInProgress, final.Status)
	s.NotEmpty(final.TutorID)
}

func (s *PostgresStoreSuite) TestResolveLifecycle() {
	ctx := context.Background()
	now := time.Now().UTC()
	d := s.mustCreate("lifecycle", now)

	_, err := s.store.Resolve(ctx, d.ID.String(), "tutor-1", nil, now)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.Claim(ctx, d.ID.String(), "tutor-1", "Ben", now)
	s.Require().NoError(err)

	_, err = s.store.Resolve(ctx, d.ID.String(), "tutor-2", nil, now)
	s.ErrorIs(err, sentinel.ErrNotOwner)

	rating := 5
	resolved, err := s.store.Resolve(ctx, d.ID.String(), "tutor-1", &rating, now)
	s.Require().NoError(err)
	s.Equal(doubt.StatusResolved, resolved.Status)
	s.Require().NotNil(resolved.Rating)
	s.Equal(5, *resolved.Rating)

	_, err = s.store.Resolve(ctx, d.ID.String(), "tutor-1", nil, now)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestIncrementResponses() {
	ctx := context.Background()
	d := s.mustCreate("chatty", time.Now().UTC())

	s.NoError(s.store.IncrementResponses(ctx, d.ID.String(), time.Now().UTC()))
	s.NoError(s.store.IncrementResponses(ctx, d.ID.String(), time.Now().UTC()))

	found, err := s.store.FindByID(ctx, d.ID.String())
	s.Require().NoError(err)
	s.Equal(2, found.Responses)
}
