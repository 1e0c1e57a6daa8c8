//go:build integration

package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tutorhub/internal/auth"
	"tutorhub/pkg/platform/sentinel"
	"tutorhub/pkg/testutil/containers"
)

type AuthPostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auth.PostgresStore
}

func TestAuthPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuthPostgresStoreSuite))
}

func (s *AuthPostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = auth.NewPostgresStore(s.postgres.Pool)
}

func (s *AuthPostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "users"))
}

func (s *AuthPostgresStoreSuite) newUser(email string) *auth.User {
	now := time.Now().UTC()
	return &auth.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Asha",
		PasswordHash: "hash",
		Coins:        auth.StartingCoins,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *AuthPostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	user := s.newUser("asha@example.com")
	s.Require().NoError(s.store.Create(ctx, user))

	byID, err := s.store.FindByID(ctx, user.ID.String())
	s.Require().NoError(err)
	s.Equal(user.Email, byID.Email)

	// Lookup is case-insensitive through normalization.
	byEmail, err := s.store.FindByEmail(ctx, "ASHA@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)

	// Ids that fail the uuid cast behave like unknown ids.
	_, err = s.store.FindByID(ctx, "no-such-id")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.CreditCoins(ctx, "no-such-id", 10), sentinel.ErrNotFound)
}

// TestConcurrentDuplicateEmail verifies the unique index arbitrates racing
// registrations: exactly one succeeds.
func (s *AuthPostgresStoreSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, s.newUser("race@example.com"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

// TestConcurrentCreditCoins verifies credits are single atomic updates that
// never lose increments under contention.
func (s *AuthPostgresStoreSuite) TestConcurrentCreditCoins() {
	ctx := context.Background()
	user := s.newUser("coins@example.com")
	s.Require().NoError(s.store.Create(ctx, user))

	const goroutines = 25
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.CreditCoins(ctx, user.ID.String(), 10))
		}()
	}
	wg.Wait()

	final, err := s.store.FindByID(ctx, user.ID.String())
	s.Require().NoError(err)
	s.Equal(auth.StartingCoins+goroutines*10, final.Coins)

	s.ErrorIs(s.store.CreditCoins(ctx, uuid.NewString(), 10), sentinel.ErrNotFound)
}
