package doubt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutorhub/pkg/platform/sentinel"
)

// PostgresStore persists doubts in PostgreSQL. State transitions are single
// conditional UPDATE statements, so concurrent claims serialize in the
// database rather than in process memory; no in-process lock could give that
// guarantee across processes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const doubtColumns = `id, title, description, subject, difficulty, status, reward_coins,
	student_id, student_name, COALESCE(tutor_id, ''), COALESCE(tutor_name, ''),
	responses, rating, created_at, updated_at`

// invalidID reports SQLSTATE 22P02, which PostgreSQL raises when a value
// cannot be cast to the uuid column type. Callers pass ids straight from the
// URL, so a malformed id means the same thing as an unknown one.
func invalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func (s *PostgresStore) Create(ctx context.Context, d *Doubt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO doubts (id, title, description, subject, difficulty, status, reward_coins,
			student_id, student_name, responses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.Title, d.Description, d.Subject, d.Difficulty, d.Status, d.RewardCoins,
		d.StudentID, d.StudentName, d.Responses, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert doubt: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Doubt, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+doubtColumns+` FROM doubts WHERE id = $1`, id)
	return scanDoubt(row)
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*Doubt, error) {
	query := `SELECT ` + doubtColumns + ` FROM doubts`
	var conditions []string
	var args []any

	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}
	if filter.Search != "" {
		add("title ILIKE $%d", "%"+escapeLike(filter.Search)+"%")
	}
	if filter.Subject != "" && filter.Subject != wildcard {
		add("subject = $%d", filter.Subject)
	}
	if filter.Difficulty != "" && filter.Difficulty != wildcard {
		add("difficulty = $%d", filter.Difficulty)
	}
	if filter.Status != "" && filter.Status != wildcard {
		add("status = $%d", filter.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list doubts: %w", err)
	}
	defer rows.Close()

	doubts := make([]*Doubt, 0)
	for rows.Next() {
		d, err := scanDoubt(rows)
		if err != nil {
			return nil, err
		}
		doubts = append(doubts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list doubts: %w", err)
	}
	return doubts, nil
}

func (s *PostgresStore) Claim(ctx context.Context, id, tutorID, tutorName string, now time.Time) (*Doubt, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE doubts
		SET status = $2, tutor_id = $3, tutor_name = $4, updated_at = $5
		WHERE id = $1 AND status = $6
		RETURNING `+doubtColumns,
		id, StatusInProgress, tutorID, tutorName, now, StatusOpen,
	)
	d, err := scanDoubt(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		// The conditional update matched nothing: either the id is unknown or
		// somebody else won the claim. Re-read to tell the two apart.
		return nil, s.classify(ctx, id, StatusOpen, "")
	}
	return d, err
}

func (s *PostgresStore) Resolve(ctx context.Context, id, tutorID string, rating *int, now time.Time) (*Doubt, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE doubts
		SET status = $2, rating = $3, updated_at = $4
		WHERE id = $1 AND status = $5 AND tutor_id = $6
		RETURNING `+doubtColumns,
		id, StatusResolved, rating, now, StatusInProgress, tutorID,
	)
	d, err := scanDoubt(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.classify(ctx, id, StatusInProgress, tutorID)
	}
	return d, err
}

func (s *PostgresStore) IncrementResponses(ctx context.Context, id string, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE doubts SET responses = responses + 1, updated_at = $2 WHERE id = $1`,
		id, now,
	)
	if invalidID(err) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("increment responses: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// classify explains why a conditional update matched no row.
func (s *PostgresStore) classify(ctx context.Context, id string, wantStatus Status, wantTutor string) error {
	var status Status
	var tutorID string
	err := s.pool.QueryRow(ctx,
		`SELECT status, COALESCE(tutor_id, '') FROM doubts WHERE id = $1`, id,
	).Scan(&status, &tutorID)
	if errors.Is(err, pgx.ErrNoRows) || invalidID(err) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify failed update: %w", err)
	}
	if status != wantStatus {
		return fmt.Errorf("status is %q: %w", status, sentinel.ErrInvalidState)
	}
	if wantTutor != "" && tutorID != wantTutor {
		return sentinel.ErrNotOwner
	}
	// The row flipped states between our update and this read; report the
	// state conflict and let the caller refresh.
	return fmt.Errorf("status is %q: %w", status, sentinel.ErrInvalidState)
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoubt(row rowScanner) (*Doubt, error) {
	var d Doubt
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Subject, &d.Difficulty, &d.Status, &d.RewardCoins,
		&d.StudentID, &d.StudentName, &d.TutorID, &d.TutorName,
		&d.Responses, &d.Rating, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) || invalidID(err) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan doubt: %w", err)
	}
	return &d, nil
}
