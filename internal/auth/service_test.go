package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tutorhub/internal/audit"
	dErrors "tutorhub/pkg/domain-errors"
)

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, event audit.Event) error {
	p.events = append(p.events, event)
	return nil
}

type AuthServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = NewService(s.store, NewTokenIssuer("test-key", time.Hour))
}

func (s *AuthServiceSuite) signUp(email string) *Session {
	session, err := s.service.SignUp(context.Background(), SignUpRequest{
		Email:    email,
		Name:     "Asha",
		Password: "correct horse",
	})
	s.Require().NoError(err)
	return session
}

func (s *AuthServiceSuite) TestSignUp() {
	s.Run("new account starts with the signing bonus and a usable token", func() {
		session := s.signUp("asha@example.com")
		s.Equal(StartingCoins, session.User.Coins)
		s.NotEmpty(session.Token)

		raw, err := json.Marshal(session.User)
		s.Require().NoError(err)
		s.NotContains(string(raw), "password", "hash must never serialize")

		claims, err := s.service.tokens.ValidateToken(session.Token)
		s.Require().NoError(err)
		s.Equal(session.User.ID.String(), claims.UserID)
	})

	s.Run("session names the signing device", func() {
		publisher := &recordingPublisher{}
		service := NewService(NewInMemoryStore(), NewTokenIssuer("test-key", time.Hour),
			WithAuditPublisher(publisher))

		session, err := service.SignUp(context.Background(), SignUpRequest{
			Email:     "device@example.com",
			Name:      "Asha",
			Password:  "correct horse",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		})
		s.Require().NoError(err)
		s.Contains(session.Device, "Firefox")
		s.Contains(session.Device, " on ")

		s.Require().Len(publisher.events, 1)
		s.Equal(session.Device, publisher.events[0].Detail["device"])
	})

	s.Run("missing user agent reads as unknown device", func() {
		session := s.signUp("nodevice@example.com")
		s.Equal("Unknown Device", session.Device)
	})

	s.Run("email is normalized to lower case", func() {
		session := s.signUp("MiXeD@Example.COM")
		s.Equal("mixed@example.com", session.User.Email)
	})

	s.Run("duplicate email conflicts", func() {
		s.signUp("dup@example.com")
		_, err := s.service.SignUp(context.Background(), SignUpRequest{
			Email: "DUP@example.com", Name: "Other", Password: "correct horse",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	tests := []struct {
		name string
		req  SignUpRequest
	}{
		{"missing email", SignUpRequest{Name: "A", Password: "correct horse"}},
		{"email without at-sign", SignUpRequest{Email: "nope", Name: "A", Password: "correct horse"}},
		{"missing name", SignUpRequest{Email: "a@b.com", Password: "correct horse"}},
		{"short password", SignUpRequest{Email: "a@b.com", Name: "A", Password: "short"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.SignUp(context.Background(), tt.req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *AuthServiceSuite) TestSignIn() {
	s.signUp("asha@example.com")

	s.Run("valid credentials return a session", func() {
		session, err := s.service.SignIn(context.Background(), SignInRequest{
			Email: "asha@example.com", Password: "correct horse",
		})
		s.Require().NoError(err)
		s.NotEmpty(session.Token)
	})

	s.Run("wrong password and unknown email are indistinguishable", func() {
		_, badPassword := s.service.SignIn(context.Background(), SignInRequest{
			Email: "asha@example.com", Password: "wrong",
		})
		_, unknownEmail := s.service.SignIn(context.Background(), SignInRequest{
			Email: "nobody@example.com", Password: "correct horse",
		})
		s.Require().Error(badPassword)
		s.Require().Error(unknownEmail)
		s.True(dErrors.HasCode(badPassword, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(unknownEmail, dErrors.CodeUnauthorized))
		s.Equal(badPassword.Error(), unknownEmail.Error())
	})
}

func (s *AuthServiceSuite) TestProfile() {
	session := s.signUp("asha@example.com")

	user, err := s.service.Profile(context.Background(), session.User.ID.String())
	s.Require().NoError(err)
	s.Equal(session.User.Email, user.Email)

	_, err = s.service.Profile(context.Background(), "missing")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AuthServiceSuite) TestCreditCoins() {
	session := s.signUp("asha@example.com")
	id := session.User.ID.String()

	s.Require().NoError(s.service.CreditCoins(context.Background(), id, 25))

	user, err := s.service.Profile(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(StartingCoins+25, user.Coins)

	s.Run("non-positive credit is rejected", func() {
		err := s.service.CreditCoins(context.Background(), id, 0)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown user is not found", func() {
		err := s.service.CreditCoins(context.Background(), "missing", 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
