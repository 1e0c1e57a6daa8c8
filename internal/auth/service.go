package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tutorhub/internal/audit"
	"tutorhub/internal/auth/device"
	"tutorhub/internal/platform/metrics"
	dErrors "tutorhub/pkg/domain-errors"
	"tutorhub/pkg/platform/sentinel"
)

// Service handles registration, login and coin accounting.
type Service struct {
	store     Store
	tokens    *TokenIssuer
	publisher audit.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, tokens *TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:     store,
		tokens:    tokens,
		publisher: audit.NopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp registers a new account and signs it in.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	case req.Name == "":
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	case len(req.Password) < 8:
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Coins:        StartingCoins,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if s.metrics != nil {
		s.metrics.UsersSignedUp.Inc()
	}
	signedUpFrom := device.ParseUserAgent(req.UserAgent)
	detail := map[string]string{"device": signedUpFrom}
	if err := s.publisher.Emit(ctx, audit.NewEvent(audit.EventUserSignedUp, user.ID.String(), user.ID.String(), detail)); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
	}
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID, "device", signedUpFrom)

	return s.session(user, signedUpFrom, now)
}

// SignIn authenticates credentials. Unknown email and bad password produce
// the same error so the endpoint cannot be used to enumerate accounts.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Session, error) {
	user, err := s.store.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	signedInFrom := device.ParseUserAgent(req.UserAgent)
	s.logger.InfoContext(ctx, "user signed in", "user_id", user.ID, "device", signedInFrom)
	return s.session(user, signedInFrom, time.Now().UTC())
}

// Profile returns the account behind an authenticated principal.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// CreditCoins adds coins to a balance. Implements doubt.CoinCrediter and the
// quiz reward path.
func (s *Service) CreditCoins(ctx context.Context, userID string, coins int) error {
	if coins <= 0 {
		return dErrors.New(dErrors.CodeValidation, "coin credit must be positive")
	}
	if err := s.store.CreditCoins(ctx, userID, coins); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit coins")
	}
	return nil
}

func (s *Service) session(user *User, deviceName string, now time.Time) (*Session, error) {
	token, err := s.tokens.Issue(user.ID.String(), user.Name, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &Session{User: user, Token: token, Device: deviceName}, nil
}
