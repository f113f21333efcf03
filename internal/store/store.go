package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness or reference constraint.
	ErrConflict = errors.New("conflict")
)

type UseCaseState string

const (
	StateDraft  UseCaseState = "draft"
	StateRated  UseCaseState = "rated"
	StateFailed UseCaseState = "failed"
)

type UseCase struct {
	ID          uuid.UUID           `json:"id"`
	Label       string              `json:"label"`
	Description string              `json:"description,omitempty"`
	ProcessID   uuid.UUID           `json:"process_id"`
	State       UseCaseState        `json:"state"`
	Attributes  []scoring.Attribute `json:"attributes"`

	// Rating outputs
	Score       *float64           `json:"score,omitempty"`
	SubScores   []scoring.SubScore `json:"sub_scores,omitempty"`
	RatingError string             `json:"rating_error,omitempty"`
	RatedAt     *time.Time         `json:"rated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UseCaseFilter struct {
	ProcessID *uuid.UUID
	State     *UseCaseState
	Limit     int
	Offset    int
}

type Process struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	// ValueWeights maps value-potential item labels to their weight for this process.
	ValueWeights map[string]float64 `json:"value_weights"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Judgment is a persisted pairwise comparison of the weight template.
type Judgment struct {
	ID         uuid.UUID     `json:"id"`
	Layer      scoring.Layer `json:"layer"`
	Category1  string        `json:"category1"`
	Category2  string        `json:"category2"`
	Importance int           `json:"importance"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (j *Judgment) Pair() scoring.CategoryPair {
	return scoring.CategoryPair{
		Layer:      j.Layer,
		Category1:  j.Category1,
		Category2:  j.Category2,
		Importance: j.Importance,
	}
}

// JudgmentsFromPairs builds unsaved judgments for ReplaceJudgments.
func JudgmentsFromPairs(pairs []scoring.CategoryPair) []*Judgment {
	out := make([]*Judgment, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, &Judgment{
			Layer:      p.Layer,
			Category1:  p.Category1,
			Category2:  p.Category2,
			Importance: p.Importance,
		})
	}
	return out
}

// validateWeights checks every value weight before any of them is written.
func validateWeights(weights map[string]float64) error {
	for label, w := range weights {
		if err := scoring.CheckWeight(label, w); err != nil {
			return err
		}
	}
	return nil
}

// Pairs converts persisted judgments back to solver input.
func Pairs(judgments []*Judgment) []scoring.CategoryPair {
	out := make([]scoring.CategoryPair, 0, len(judgments))
	for _, j := range judgments {
		out = append(out, j.Pair())
	}
	return out
}

type Store interface {
	// Use cases
	CreateUseCase(ctx context.Context, uc *UseCase) error
	GetUseCase(ctx context.Context, id uuid.UUID) (*UseCase, error)
	ListUseCases(ctx context.Context, filter UseCaseFilter) ([]*UseCase, error)
	UpdateUseCase(ctx context.Context, uc *UseCase) error
	DeleteUseCase(ctx context.Context, id uuid.UUID) error
	SaveRating(ctx context.Context, id uuid.UUID, rating scoring.Rating) error
	SaveRatingFailure(ctx context.Context, id uuid.UUID, reason string) error

	// Process catalog
	CreateProcess(ctx context.Context, p *Process) error
	GetProcess(ctx context.Context, id uuid.UUID) (*Process, error)
	ListProcesses(ctx context.Context) ([]*Process, error)
	DeleteProcess(ctx context.Context, id uuid.UUID) error
	SetProcessWeights(ctx context.Context, id uuid.UUID, weights map[string]float64) error

	// Template judgments
	ReplaceJudgments(ctx context.Context, judgments []*Judgment) error
	ListJudgments(ctx context.Context) ([]*Judgment, error)

	Close() error
}
