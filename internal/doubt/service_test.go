package doubt_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tutorhub/internal/doubt"
	"tutorhub/internal/doubt/mocks"
	"tutorhub/internal/notify"
	"tutorhub/internal/platform/metrics"
	dErrors "tutorhub/pkg/domain-errors"
	"tutorhub/pkg/platform/sentinel"
)

type recordingCrediter struct {
	userID string
	coins  int
	err    error
}

func (c *recordingCrediter) CreditCoins(_ context.Context, userID string, coins int) error {
	c.userID = userID
	c.coins = coins
	return c.err
}

type DoubtServiceSuite struct {
	suite.Suite
	store    *doubt.InMemoryStore
	crediter *recordingCrediter
	service  *doubt.Service
}

func TestDoubtServiceSuite(t *testing.T) {
	suite.Run(t, new(DoubtServiceSuite))
}

func (s *DoubtServiceSuite) SetupTest() {
	s.store = doubt.NewInMemoryStore()
	s.crediter = &recordingCrediter{}
	s.service = doubt.NewService(s.store, notify.NewBus(),
		doubt.WithMetrics(metrics.NewForTest()),
		doubt.WithCoinCrediter(s.crediter),
	)
}

func (s *DoubtServiceSuite) create() *doubt.Doubt {
	d, err := s.service.Create(context.Background(), doubt.CreateRequest{
		Title:       "Chain rule",
		Description: "How do I differentiate f(g(x))?",
		Subject:     doubt.SubjectMathematics,
		Difficulty:  doubt.DifficultyMedium,
		RewardCoins: 25,
	}, "student-1", "Asha")
	s.Require().NoError(err)
	return d
}

func (s *DoubtServiceSuite) TestCreate() {
	s.Run("valid request persists an open doubt", func() {
		d := s.create()
		s.Equal(doubt.StatusOpen, d.Status)

		stored, err := s.service.Get(context.Background(), d.ID.String())
		s.NoError(err)
		s.Equal(d.ID, stored.ID)
	})

	s.Run("validation failure is surfaced", func() {
		_, err := s.service.Create(context.Background(), doubt.CreateRequest{
			Title: "no description", Subject: doubt.SubjectPhysics,
			Difficulty: doubt.DifficultyEasy, RewardCoins: 10,
		}, "student-1", "Asha")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("mutation notifies subscribers", func() {
		notified := make(chan struct{}, 1)
		sub := s.service.Subscribe(func() {
			select {
			case notified <- struct{}{}:
			default:
			}
		})
		defer sub.Unsubscribe()

		s.create()
		select {
		case <-notified:
		case <-time.After(time.Second):
			s.Fail("expected a change notification")
		}
	})
}

func (s *DoubtServiceSuite) TestClaim() {
	ctx := context.Background()

	s.Run("tutor claims an open doubt", func() {
		d := s.create()
		claimed, err := s.service.Claim(ctx, d.ID.String(), "tutor-1", "Ben")
		s.Require().NoError(err)
		s.Equal(doubt.StatusInProgress, claimed.Status)
		s.Equal("tutor-1", claimed.TutorID)
	})

	s.Run("student cannot claim own doubt", func() {
		d := s.create()
		_, err := s.service.Claim(ctx, d.ID.String(), "student-1", "Asha")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("second claim reports the current status", func() {
		d := s.create()
		_, err := s.service.Claim(ctx, d.ID.String(), "tutor-1", "Ben")
		s.Require().NoError(err)

		_, err = s.service.Claim(ctx, d.ID.String(), "tutor-2", "Cara")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Contains(err.Error(), string(doubt.StatusInProgress))
	})

	s.Run("unknown doubt is not found", func() {
		_, err := s.service.Claim(ctx, "2f9f495e-9778-4f7a-8f2e-000000000000", "tutor-1", "Ben")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *DoubtServiceSuite) TestResolve() {
	ctx := context.Background()

	s.Run("assigned tutor resolves and is credited the reward", func() {
		d := s.create()
		_, err := s.service.Claim(ctx, d.ID.String(), "tutor-1", "Ben")
		s.Require().NoError(err)

		rating := 5
		resolved, err := s.service.Resolve(ctx, d.ID.String(), "tutor-1", &rating)
		s.Require().NoError(err)
		s.Equal(doubt.StatusResolved, resolved.Status)
		s.Equal("tutor-1", s.crediter.userID)
		s.Equal(25, s.crediter.coins)
	})

	s.Run("other tutor is forbidden", func() {
		d := s.create()
		_, err := s.service.Claim(ctx, d.ID.String(), "tutor-1", "Ben")
		s.Require().NoError(err)

		_, err = s.service.Resolve(ctx, d.ID.String(), "tutor-2", nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("open doubt cannot be resolved", func() {
		d := s.create()
		_, err := s.service.Resolve(ctx, d.ID.String(), "tutor-1", nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Contains(err.Error(), string(doubt.StatusOpen))
	})

	s.Run("failed coin credit does not unwind the resolution", func() {
		d := s.create()
		_, err := s.service.Claim(ctx, d.ID.String(), "tutor-1", "Ben")
		s.Require().NoError(err)

		s.crediter.err = errors.New("ledger offline")
		resolved, err := s.service.Resolve(ctx, d.ID.String(), "tutor-1", nil)
		s.crediter.err = nil
		s.Require().NoError(err)
		s.Equal(doubt.StatusResolved, resolved.Status)
	})
}

func TestServiceStoreFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	open, err := doubt.New("t", "d", doubt.SubjectPhysics, doubt.DifficultyEasy, 10, "student-1", "Asha", now)
	require.NoError(t, err)

	t.Run("claim lost race reads back the winner's status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)

		claimed := *open
		claimed.ApplyClaim("tutor-1", "Ben", now)

		store.EXPECT().FindByID(gomock.Any(), open.ID.String()).Return(open, nil)
		store.EXPECT().Claim(gomock.Any(), open.ID.String(), "tutor-2", "Cara", gomock.Any()).
			Return(nil, fmt.Errorf("doubt %s: %w", open.ID, sentinel.ErrInvalidState))
		store.EXPECT().FindByID(gomock.Any(), open.ID.String()).Return(&claimed, nil)

		svc := doubt.NewService(store, notify.NewBus())
		_, err := svc.Claim(ctx, open.ID.String(), "tutor-2", "Cara")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Contains(t, err.Error(), string(doubt.StatusInProgress))
	})

	t.Run("store outage maps to internal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)
		store.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

		svc := doubt.NewService(store, notify.NewBus())
		_, err := svc.List(ctx, doubt.Filter{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("deadline exceeded maps to timeout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)
		store.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

		svc := doubt.NewService(store, notify.NewBus())
		_, err := svc.List(ctx, doubt.Filter{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}
