package quiz

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists attempts and computes the leaderboard in SQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveAttempt(ctx context.Context, attempt *Attempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_attempts
			(id, user_id, user_name, quiz_id, topic, score, total_questions, time_spent, coins_earned, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		attempt.ID, attempt.UserID, attempt.UserName, attempt.QuizID, attempt.Topic,
		attempt.Score, attempt.TotalQuestions, attempt.TimeSpent, attempt.CoinsEarned,
		attempt.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Attempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, user_name, quiz_id, topic, score, total_questions, time_spent, coins_earned, completed_at
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY completed_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query quiz attempts: %w", err)
	}
	defer rows.Close()

	var out []*Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserName, &a.QuizID, &a.Topic,
			&a.Score, &a.TotalQuestions, &a.TimeSpent, &a.CoinsEarned, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz attempts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id,
		       MAX(user_name)     AS user_name,
		       COUNT(*)           AS quizzes,
		       SUM(score)         AS total_score,
		       SUM(coins_earned)  AS coins_earned
		FROM quiz_attempts
		GROUP BY user_id
		ORDER BY total_score DESC, coins_earned DESC, user_id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*LeaderboardEntry, error) {
		var e LeaderboardEntry
		err := row.Scan(&e.UserID, &e.UserName, &e.Quizzes, &e.TotalScore, &e.CoinsEarned)
		return &e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan leaderboard: %w", err)
	}
	return entries, nil
}
