package audit

import "context"

// Store is the append-only audit sink the worker drains into.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subjectID string) ([]Event, error)
}
