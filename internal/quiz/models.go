package quiz

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tutorhub/internal/doubt"
	dErrors "tutorhub/pkg/domain-errors"
)

// Time limits per difficulty, in seconds.
const (
	TimeLimitEasy   = 240
	TimeLimitMedium = 300
	TimeLimitHard   = 420
)

// Coin rewards by score band. Completing a quiz always pays something.
const (
	RewardHigh = 50 // 80% and above
	RewardMid  = 30 // 60% and above
	RewardBase = 10
)

const (
	MinQuestions     = 3
	MaxQuestions     = 10
	DefaultQuestions = 5
)

// Question is a single multiple-choice item. The correct option index is
// never serialized; grading happens server side.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  int      `json:"-"`
}

// Quiz is a generated question set held server side until it is submitted
// or expires.
type Quiz struct {
	ID         uuid.UUID        `json:"id"`
	Topic      string           `json:"topic"`
	Difficulty doubt.Difficulty `json:"difficulty"`
	TimeLimit  int              `json:"time_limit"`
	Questions  []Question       `json:"questions"`
	UserID     string           `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
}

// GenerateRequest asks for a fresh quiz.
type GenerateRequest struct {
	Topic        string           `json:"topic"`
	Difficulty   doubt.Difficulty `json:"difficulty"`
	NumQuestions int              `json:"question_count"`
}

// Validate normalizes the request in place.
func (r *GenerateRequest) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return dErrors.New(dErrors.CodeValidation, "topic is required")
	}
	if !r.Difficulty.Valid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown difficulty %q", r.Difficulty))
	}
	if r.NumQuestions == 0 {
		r.NumQuestions = DefaultQuestions
	}
	if r.NumQuestions < MinQuestions || r.NumQuestions > MaxQuestions {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("question_count must be between %d and %d", MinQuestions, MaxQuestions))
	}
	return nil
}

// SubmitRequest carries the answers for a previously generated quiz.
// Answers are option indexes, one per question, -1 for unanswered.
type SubmitRequest struct {
	QuizID    string `json:"quiz_id"`
	Answers   []int  `json:"answers"`
	TimeSpent int    `json:"time_spent"`
}

// Attempt is the graded record of a submitted quiz.
type Attempt struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	QuizID         string    `json:"quiz_id"`
	Topic          string    `json:"topic"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	TimeSpent      int       `json:"time_spent"`
	CoinsEarned    int       `json:"coins_earned"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Percent returns the score as a whole percentage.
func (a *Attempt) Percent() int {
	if a.TotalQuestions == 0 {
		return 0
	}
	return a.Score * 100 / a.TotalQuestions
}

// RewardFor maps a score to the coins it earns.
func RewardFor(score, total int) int {
	if total == 0 {
		return RewardBase
	}
	percent := score * 100 / total
	switch {
	case percent >= 80:
		return RewardHigh
	case percent >= 60:
		return RewardMid
	default:
		return RewardBase
	}
}

// TimeLimitFor returns the allotted seconds for a difficulty.
func TimeLimitFor(d doubt.Difficulty) int {
	switch d {
	case DifficultyHard:
		return TimeLimitHard
	case DifficultyMedium:
		return TimeLimitMedium
	default:
		return TimeLimitEasy
	}
}

// Difficulty aliases keep call sites inside this package short.
const (
	DifficultyEasy   = doubt.DifficultyEasy
	DifficultyMedium = doubt.DifficultyMedium
	DifficultyHard   = doubt.DifficultyHard
)

// LeaderboardEntry aggregates a user's quiz history.
type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Quizzes     int    `json:"quizzes"`
	TotalScore  int    `json:"total_score"`
	CoinsEarned int    `json:"coins_earned"`
}
