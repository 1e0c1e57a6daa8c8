package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tutorhub/internal/audit"
	"tutorhub/internal/platform/metrics"
	dErrors "tutorhub/pkg/domain-errors"
	"tutorhub/pkg/platform/sentinel"
)

// CoinCrediter credits quiz rewards to the user's balance.
type CoinCrediter interface {
	CreditCoins(ctx context.Context, userID string, coins int) error
}

// submitGrace extends the time limit to absorb network latency before a
// pending quiz is considered abandoned.
const submitGrace = 60 * time.Second

const leaderboardLimit = 20

// Service generates quizzes and grades submissions. Generated quizzes are
// held in memory with the answer key server side; a quiz can be submitted
// once, by the user it was generated for, within its time limit.
type Service struct {
	store    Store
	crediter CoinCrediter

	mu      sync.Mutex
	pending map[string]*Quiz

	publisher audit.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
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

func WithCoinCrediter(c CoinCrediter) Option {
	return func(s *Service) { s.crediter = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		pending:   make(map[string]*Quiz),
		publisher: audit.NopPublisher{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("tutorhub/quiz"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds a quiz from the topic's question bank. Option order is
// shuffled per question so repeated quizzes on the same topic differ.
func (s *Service) Generate(ctx context.Context, req GenerateRequest, userID string) (*Quiz, error) {
	_, span := s.tracer.Start(ctx, "quiz.generate")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	bank := lookupTemplate(req.Topic)
	questions := make([]Question, req.NumQuestions)
	for i := range questions {
		questions[i] = shuffleOptions(bank.questions[i%len(bank.questions)])
	}

	now := s.now()
	q := &Quiz{
		ID:         uuid.New(),
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		TimeLimit:  TimeLimitFor(req.Difficulty),
		Questions:  questions,
		UserID:     userID,
		CreatedAt:  now,
	}

	s.mu.Lock()
	s.sweepLocked(now)
	s.pending[q.ID.String()] = q
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "quiz generated",
		"quiz_id", q.ID,
		"topic", q.Topic,
		"difficulty", q.Difficulty,
		"questions", len(q.Questions),
	)
	return q, nil
}

// Submit grades a pending quiz, persists the attempt and credits the reward.
// A quiz can be graded at most once.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, userID, userName string) (*Attempt, error) {
	ctx, span := s.tracer.Start(ctx, "quiz.submit")
	defer span.End()

	if req.QuizID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "quiz_id is required")
	}
	if req.TimeSpent < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "time_spent cannot be negative")
	}

	q, err := s.takePending(req.QuizID, userID)
	if err != nil {
		return nil, err
	}
	if len(req.Answers) != len(q.Questions) {
		// The quiz is already consumed at this point; a malformed submission
		// forfeits it, same as running out of time.
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("expected %d answers, got %d", len(q.Questions), len(req.Answers)))
	}

	score := 0
	for i, question := range q.Questions {
		if req.Answers[i] == question.Answer {
			score++
		}
	}

	attempt := &Attempt{
		ID:             uuid.New(),
		UserID:         userID,
		UserName:       userName,
		QuizID:         q.ID.String(),
		Topic:          q.Topic,
		Score:          score,
		TotalQuestions: len(q.Questions),
		TimeSpent:      req.TimeSpent,
		CoinsEarned:    RewardFor(score, len(q.Questions)),
		CompletedAt:    s.now(),
	}
	if err := s.store.SaveAttempt(ctx, attempt); err != nil {
		span.SetStatus(codes.Error, "save attempt failed")
		return nil, s.translate(err)
	}

	if s.crediter != nil {
		// The attempt is already recorded; a failed credit is repaired out of
		// band rather than discarding the grade.
		if err := s.crediter.CreditCoins(ctx, userID, attempt.CoinsEarned); err != nil {
			s.logger.ErrorContext(ctx, "failed to credit quiz reward",
				"error", err,
				"quiz_id", q.ID,
				"user_id", userID,
				"coins", attempt.CoinsEarned,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.QuizzesScored.Inc()
	}
	if err := s.publisher.Emit(ctx, audit.NewEvent(audit.EventQuizCompleted, userID, q.ID.String(), map[string]string{
		"topic": q.Topic,
		"score": fmt.Sprintf("%d/%d", score, len(q.Questions)),
		"coins": fmt.Sprintf("%d", attempt.CoinsEarned),
	})); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
	}

	s.logger.InfoContext(ctx, "quiz submitted",
		"quiz_id", q.ID,
		"user_id", userID,
		"score", score,
		"coins", attempt.CoinsEarned,
	)
	return attempt, nil
}

// Attempts returns the caller's attempt history, newest first.
func (s *Service) Attempts(ctx context.Context, userID string) ([]*Attempt, error) {
	attempts, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.translate(err)
	}
	return attempts, nil
}

// Leaderboard returns the top quiz takers by total score.
func (s *Service) Leaderboard(ctx context.Context) ([]*LeaderboardEntry, error) {
	entries, err := s.store.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		return nil, s.translate(err)
	}
	return entries, nil
}

// takePending removes and returns the pending quiz, enforcing ownership and
// the time limit.
func (s *Service) takePending(quizID, userID string) (*Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.pending[quizID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "quiz not found or already submitted")
	}
	if q.UserID != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "quiz belongs to another user")
	}
	delete(s.pending, quizID)
	if s.now().After(q.deadline()) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "quiz time limit has expired")
	}
	return q, nil
}

// sweepLocked drops expired quizzes. Called under s.mu.
func (s *Service) sweepLocked(now time.Time) {
	for id, q := range s.pending {
		if now.After(q.deadline()) {
			delete(s.pending, id)
		}
	}
}

func (q *Quiz) deadline() time.Time {
	return q.CreatedAt.Add(time.Duration(q.TimeLimit)*time.Second + submitGrace)
}

func (s *Service) translate(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "store operation timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store operation failed")
	}
}

// shuffleOptions returns a copy of the question with its options permuted
// and the answer index tracking the correct option.
func shuffleOptions(q Question) Question {
	out := q
	out.Options = make([]string, len(q.Options))
	perm := rand.Perm(len(q.Options))
	for from, to := range perm {
		out.Options[to] = q.Options[from]
		if from == q.Answer {
			out.Answer = to
		}
	}
	return out
}
