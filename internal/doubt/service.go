package doubt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tutorhub/internal/audit"
	"tutorhub/internal/notify"
	"tutorhub/internal/platform/metrics"
	dErrors "tutorhub/pkg/domain-errors"
	"tutorhub/pkg/platform/sentinel"
)

// CoinCrediter credits resolved-doubt rewards to the tutor's balance.
type CoinCrediter interface {
	CreditCoins(ctx context.Context, userID string, coins int) error
}

// CreateRequest carries the caller-supplied fields for a new doubt. The
// creator identity comes from the auth context, never from the body.
type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Subject     Subject    `json:"subject"`
	Difficulty  Difficulty `json:"difficulty"`
	RewardCoins int        `json:"reward_coins"`
}

// Service owns the doubt lifecycle: it enforces the state machine, keeps the
// store as the single source of truth, and fans out change notices. It holds
// no cross-request cache.
type Service struct {
	store     Store
	notifier  notify.Notifier
	publisher audit.Publisher
	crediter  CoinCrediter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
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

// NewService constructs a Service. Audit and coin crediting default to
// no-ops so tests can wire only what they assert on.
func NewService(store Store, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		store:     store,
		notifier:  notifier,
		publisher: audit.NopPublisher{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("tutorhub/doubt"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new open doubt.
func (s *Service) Create(ctx context.Context, req CreateRequest, studentID, studentName string) (*Doubt, error) {
	ctx, span := s.tracer.Start(ctx, "doubt.create")
	defer span.End()

	d, err := New(req.Title, req.Description, req.Subject, req.Difficulty, req.RewardCoins, studentID, studentName, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, d); err != nil {
		span.SetStatus(codes.Error, "create failed")
		return nil, s.translate(err, "doubt")
	}

	if s.metrics != nil {
		s.metrics.DoubtsCreated.Inc()
	}
	s.emit(ctx, audit.EventDoubtCreated, studentID, d.ID.String(), map[string]string{
		"subject": string(d.Subject),
		"reward":  fmt.Sprintf("%d", d.RewardCoins),
	})
	s.notifyChanged(ctx)

	s.logger.InfoContext(ctx, "doubt created",
		"doubt_id", d.ID,
		"subject", d.Subject,
		"reward", d.RewardCoins,
	)
	return d, nil
}

// List returns doubts matching the filter, newest first. Safe to retry.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Doubt, error) {
	ctx, span := s.tracer.Start(ctx, "doubt.list")
	defer span.End()

	doubts, err := s.store.List(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, "list failed")
		return nil, s.translate(err, "doubt")
	}
	return doubts, nil
}

// Get returns a single doubt by id.
func (s *Service) Get(ctx context.Context, id string) (*Doubt, error) {
	d, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "doubt")
	}
	return d, nil
}

// Claim assigns an open doubt to a tutor. The store performs the
// open->in_progress transition as one conditional update, so two racing
// claims yield exactly one winner. NOT safely retryable on timeout: re-read
// the doubt first, the first attempt may have won server-side.
func (s *Service) Claim(ctx context.Context, doubtID, tutorID, tutorName string) (*Doubt, error) {
	ctx, span := s.tracer.Start(ctx, "doubt.claim")
	defer span.End()

	current, err := s.store.FindByID(ctx, doubtID)
	if err != nil {
		return nil, s.translate(err, "doubt")
	}
	// Self-claim is decided against immutable data, so checking before the
	// conditional update cannot race.
	if err := current.CanClaim(tutorID); err != nil {
		return nil, err
	}

	d, err := s.store.Claim(ctx, doubtID, tutorID, tutorName, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			if s.metrics != nil {
				s.metrics.ClaimConflicts.Inc()
			}
			return nil, s.invalidState(ctx, doubtID, "doubt is not open")
		}
		span.SetStatus(codes.Error, "claim failed")
		return nil, s.translate(err, "doubt")
	}

	if s.metrics != nil {
		s.metrics.DoubtsClaimed.Inc()
	}
	s.emit(ctx, audit.EventDoubtClaimed, tutorID, d.ID.String(), nil)
	s.notifyChanged(ctx)

	s.logger.InfoContext(ctx, "doubt claimed", "doubt_id", d.ID, "tutor_id", tutorID)
	return d, nil
}

// Resolve completes an in-progress doubt and credits the reward to the
// assigned tutor. Only that tutor may resolve.
func (s *Service) Resolve(ctx context.Context, doubtID, callerID string, rating *int) (*Doubt, error) {
	ctx, span := s.tracer.Start(ctx, "doubt.resolve")
	defer span.End()

	current, err := s.store.FindByID(ctx, doubtID)
	if err != nil {
		return nil, s.translate(err, "doubt")
	}
	if err := current.CanResolve(callerID, rating); err != nil {
		return nil, err
	}

	d, err := s.store.Resolve(ctx, doubtID, callerID, rating, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, s.invalidState(ctx, doubtID, "doubt is not in progress")
		case errors.Is(err, sentinel.ErrNotOwner):
			return nil, dErrors.New(dErrors.CodeForbidden, "only the assigned tutor can resolve this doubt")
		}
		span.SetStatus(codes.Error, "resolve failed")
		return nil, s.translate(err, "doubt")
	}

	if s.crediter != nil {
		// The resolution is already committed; a failed credit is repaired
		// out of band rather than unwinding the state transition.
		if err := s.crediter.CreditCoins(ctx, callerID, d.RewardCoins); err != nil {
			s.logger.ErrorContext(ctx, "failed to credit reward",
				"error", err,
				"doubt_id", d.ID,
				"tutor_id", callerID,
				"coins", d.RewardCoins,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.DoubtsResolved.Inc()
	}
	detail := map[string]string{"reward": fmt.Sprintf("%d", d.RewardCoins)}
	if rating != nil {
		detail["rating"] = fmt.Sprintf("%d", *rating)
	}
	s.emit(ctx, audit.EventDoubtResolved, callerID, d.ID.String(), detail)
	s.notifyChanged(ctx)

	s.logger.InfoContext(ctx, "doubt resolved", "doubt_id", d.ID, "tutor_id", callerID)
	return d, nil
}

// RecordResponse bumps the response counter when someone replies in the
// doubt's chat.
func (s *Service) RecordResponse(ctx context.Context, doubtID string) error {
	if err := s.store.IncrementResponses(ctx, doubtID, time.Now().UTC()); err != nil {
		return s.translate(err, "doubt")
	}
	s.notifyChanged(ctx)
	return nil
}

// Subscribe registers a callback fired after any successful mutation of the
// doubt collection, local or remote.
func (s *Service) Subscribe(fn func()) notify.Subscription {
	return s.notifier.Subscribe(notify.TableDoubts, fn)
}

// invalidState builds the caller-facing conflict message, including the
// current status so the caller can refresh its view.
func (s *Service) invalidState(ctx context.Context, doubtID, message string) error {
	if current, err := s.store.FindByID(ctx, doubtID); err == nil {
		return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("%s (status %q)", message, current.Status))
	}
	return dErrors.New(dErrors.CodeInvalidState, message)
}

func (s *Service) translate(err error, entity string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "store operation timed out")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, entity+" already exists")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store operation failed")
	}
}

func (s *Service) emit(ctx context.Context, eventType audit.EventType, actorID, subjectID string, detail map[string]string) {
	if err := s.publisher.Emit(ctx, audit.NewEvent(eventType, actorID, subjectID, detail)); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "error", err, "type", eventType)
	}
}

func (s *Service) notifyChanged(ctx context.Context) {
	if err := s.notifier.Publish(ctx, notify.TableDoubts); err != nil {
		s.logger.WarnContext(ctx, "failed to publish change notice", "error", err)
	}
}
