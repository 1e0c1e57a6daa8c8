package quiz

import "context"

// Store persists graded attempts.
//
// ListByUser returns attempts newest first. Leaderboard aggregates per user
// and orders by total score descending, coins as the tiebreak.
type Store interface {
	SaveAttempt(ctx context.Context, attempt *Attempt) error
	ListByUser(ctx context.Context, userID string) ([]*Attempt, error)
	Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error)
}
