// Package notify implements the transient change feed. Notifications carry no
// payload beyond "this table changed": consumers re-fetch from the store,
// which stays the single source of truth. Delivery is best effort, with no
// ordering guarantee beyond last write wins.
package notify

import "context"

// TableDoubts keys the doubt collection's change channel.
const TableDoubts = "doubts"

// Notifier publishes change notices and fans them out to local subscribers.
type Notifier interface {
	// Publish signals that the named table changed. Errors are for the
	// caller's log line only; a lost notification is not a failed mutation.
	Publish(ctx context.Context, table string) error

	// Subscribe registers a callback invoked on every change notice for the
	// table, local or remote.
	Subscribe(table string, fn func()) Subscription
}

// Subscription is the cancellation handle returned by Subscribe.
type Subscription interface {
	// Unsubscribe stops further invocations. Safe to call more than once.
	Unsubscribe()
}
