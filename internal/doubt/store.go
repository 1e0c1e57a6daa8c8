package doubt

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/store_mock.go -package=mocks tutorhub/internal/doubt Store

// Store is the persistence contract for the doubt collection.
//
// Claim and Resolve are atomic check-and-set operations: the status check and
// the update happen as one step against the backend, so two racing claims can
// never both succeed even across processes. Both return the updated record.
// On a lost race they return sentinel.ErrInvalidState (wrapped with the
// current status in the message); unknown ids return sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, d *Doubt) error
	FindByID(ctx context.Context, id string) (*Doubt, error)

	// List returns doubts matching the filter, ordered by creation time
	// descending. An empty result is not an error.
	List(ctx context.Context, filter Filter) ([]*Doubt, error)

	// Claim sets status=in_progress and the tutor identity iff status=open.
	Claim(ctx context.Context, id, tutorID, tutorName string, now time.Time) (*Doubt, error)

	// Resolve sets status=resolved and the rating iff status=in_progress and
	// the caller is the assigned tutor.
	Resolve(ctx context.Context, id, tutorID string, rating *int, now time.Time) (*Doubt, error)

	// IncrementResponses bumps the monotonic response counter.
	IncrementResponses(ctx context.Context, id string, now time.Time) error
}
