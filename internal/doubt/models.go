package doubt

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "tutorhub/pkg/domain-errors"
)

// Subject is the enumerated set of academic subjects a doubt can belong to.
type Subject string

const (
	SubjectMathematics     Subject = "Mathematics"
	SubjectPhysics         Subject = "Physics"
	SubjectChemistry       Subject = "Chemistry"
	SubjectBiology         Subject = "Biology"
	SubjectComputerScience Subject = "Computer Science"
	SubjectEnglish         Subject = "English"
	SubjectHistory         Subject = "History"
	SubjectGeography       Subject = "Geography"
)

// Subjects lists every valid subject, in display order.
var Subjects = []Subject{
	SubjectMathematics,
	SubjectPhysics,
	SubjectChemistry,
	SubjectBiology,
	SubjectComputerScience,
	SubjectEnglish,
	SubjectHistory,
	SubjectGeography,
}

func (s Subject) Valid() bool {
	for _, subject := range Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// Difficulty grades a doubt. Values are lowercase on the wire.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Status is the doubt lifecycle state.
//
// State machine:
//
//	create()          claim()                resolve()
//	   └──► open ────────────► in_progress ────────────► resolved
//
// open and in_progress are transient; resolved is terminal. There is no
// reopen or unclaim transition.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits the transition.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusResolved
	default:
		return false
	}
}

// MinReward is the smallest coin reward a doubt may offer.
const MinReward = 10

// Doubt is the central entity: a student-submitted question with a reward,
// claimed and resolved by exactly one tutor.
//
// Invariants:
//   - Status=open implies TutorID is empty; TutorID set implies Status != open
//   - Status in {in_progress, resolved} implies TutorID set and TutorID != StudentID
//   - Rating is present only when Status=resolved
//   - RewardCoins, StudentID and CreatedAt are immutable after creation
//   - Responses never decreases
type Doubt struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Subject     Subject    `json:"subject"`
	Difficulty  Difficulty `json:"difficulty"`
	Status      Status     `json:"status"`
	RewardCoins int        `json:"reward_coins"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	TutorID     string     `json:"tutor_id,omitempty"`
	TutorName   string     `json:"tutor_name,omitempty"`
	Responses   int        `json:"responses"`
	Rating      *int       `json:"rating,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// New validates the creation fields and builds an open doubt.
func New(title, description string, subject Subject, difficulty Difficulty, reward int, studentID, studentName string, now time.Time) (*Doubt, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	switch {
	case title == "":
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	case description == "":
		return nil, dErrors.New(dErrors.CodeValidation, "description is required")
	case !subject.Valid():
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown subject %q", subject))
	case !difficulty.Valid():
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown difficulty %q", difficulty))
	case reward < MinReward:
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("reward must be at least %d coins", MinReward))
	case studentID == "":
		return nil, dErrors.New(dErrors.CodeValidation, "student identity is required")
	}
	return &Doubt{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Subject:     subject,
		Difficulty:  difficulty,
		Status:      StatusOpen,
		RewardCoins: reward,
		StudentID:   studentID,
		StudentName: studentName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanClaim checks whether the tutor may take this doubt.
func (d *Doubt) CanClaim(tutorID string) error {
	if tutorID == d.StudentID {
		return dErrors.New(dErrors.CodeValidation, "cannot claim your own doubt")
	}
	if !d.Status.CanTransitionTo(StatusInProgress) {
		return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("doubt is not open (status %q)", d.Status))
	}
	return nil
}

// ApplyClaim transitions the doubt to in_progress. Call CanClaim first.
func (d *Doubt) ApplyClaim(tutorID, tutorName string, now time.Time) {
	d.Status = StatusInProgress
	d.TutorID = tutorID
	d.TutorName = tutorName
	d.UpdatedAt = now
}

// CanResolve checks whether the caller may resolve this doubt.
func (d *Doubt) CanResolve(callerID string, rating *int) error {
	if !d.Status.CanTransitionTo(StatusResolved) {
		return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("doubt is not in progress (status %q)", d.Status))
	}
	if callerID != d.TutorID {
		return dErrors.New(dErrors.CodeForbidden, "only the assigned tutor can resolve this doubt")
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return dErrors.New(dErrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

// ApplyResolve transitions the doubt to resolved. Call CanResolve first.
func (d *Doubt) ApplyResolve(rating *int, now time.Time) {
	d.Status = StatusResolved
	d.Rating = rating
	d.UpdatedAt = now
}

// Filter narrows a doubt listing. Zero values and "all" wildcard any
// predicate; the four predicates are ANDed.
type Filter struct {
	Search     string
	Subject    string
	Difficulty string
	Status     string
}

const wildcard = "all"

// Matches reports whether the doubt passes every predicate.
func (f Filter) Matches(d *Doubt) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(d.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.Subject != "" && f.Subject != wildcard && string(d.Subject) != f.Subject {
		return false
	}
	if f.Difficulty != "" && f.Difficulty != wildcard && string(d.Difficulty) != f.Difficulty {
		return false
	}
	if f.Status != "" && f.Status != wildcard && string(d.Status) != f.Status {
		return false
	}
	return true
}
