package quiz

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore keeps attempts in memory for tests and databaseless runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	attempts []*Attempt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SaveAttempt(_ context.Context, attempt *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *attempt
	s.attempts = append(s.attempts, &clone)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]*Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Attempt
	for _, a := range s.attempts {
		if a.UserID == userID {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Leaderboard(_ context.Context, limit int) ([]*LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byUser := make(map[string]*LeaderboardEntry)
	for _, a := range s.attempts {
		entry, ok := byUser[a.UserID]
		if !ok {
			entry = &LeaderboardEntry{UserID: a.UserID, UserName: a.UserName}
			byUser[a.UserID] = entry
		}
		entry.Quizzes++
		entry.TotalScore += a.Score
		entry.CoinsEarned += a.CoinsEarned
	}
	out := make([]*LeaderboardEntry, 0, len(byUser))
	for _, entry := range byUser {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		if out[i].CoinsEarned != out[j].CoinsEarned {
			return out[i].CoinsEarned > out[j].CoinsEarned
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
