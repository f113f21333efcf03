package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

// MemoryStore keeps everything in process memory. It backs the service when
// no database is configured and stands in for Postgres in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	useCases  map[uuid.UUID]*UseCase
	processes map[uuid.UUID]*Process
	judgments []*Judgment
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		useCases:  make(map[uuid.UUID]*UseCase),
		processes: make(map[uuid.UUID]*Process),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Close() error { return nil }

func copyUseCase(uc *UseCase) *UseCase {
	c := *uc
	c.Attributes = append([]scoring.Attribute(nil), uc.Attributes...)
	c.SubScores = append([]scoring.SubScore(nil), uc.SubScores...)
	if uc.Score != nil {
		v := *uc.Score
		c.Score = &v
	}
	if uc.RatedAt != nil {
		v := *uc.RatedAt
		c.RatedAt = &v
	}
	return &c
}

func copyProcess(p *Process) *Process {
	c := *p
	c.ValueWeights = make(map[string]float64, len(p.ValueWeights))
	for k, v := range p.ValueWeights {
		c.ValueWeights[k] = v
	}
	return &c
}

// --- Use cases ---

func (s *MemoryStore) CreateUseCase(_ context.Context, uc *UseCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processes[uc.ProcessID]; !ok {
		return goerr.Wrap(ErrConflict, "use case references unknown process", goerr.V("process_id", uc.ProcessID))
	}
	uc.ID = uuid.New()
	if uc.State == "" {
		uc.State = StateDraft
	}
	uc.CreatedAt = s.now()
	uc.UpdatedAt = uc.CreatedAt
	s.useCases[uc.ID] = copyUseCase(uc)
	return nil
}

func (s *MemoryStore) GetUseCase(_ context.Context, id uuid.UUID) (*UseCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uc, ok := s.useCases[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "use case not found", goerr.V("id", id))
	}
	return copyUseCase(uc), nil
}

// ListUseCases orders like the Postgres store: rated first by descending
// score, then by creation time.
func (s *MemoryStore) ListUseCases(_ context.Context, filter UseCaseFilter) ([]*UseCase, error) {
	s.mu.RLock()
	var out []*UseCase
	for _, uc := range s.useCases {
		if filter.ProcessID != nil && uc.ProcessID != *filter.ProcessID {
			continue
		}
		if filter.State != nil && uc.State != *filter.State {
			continue
		}
		out = append(out, copyUseCase(uc))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Score != nil && b.Score == nil:
			return true
		case a.Score == nil && b.Score != nil:
			return false
		case a.Score != nil && b.Score != nil && *a.Score != *b.Score:
			return *a.Score > *b.Score
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateUseCase(_ context.Context, uc *UseCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.useCases[uc.ID]
	if !ok {
		return goerr.Wrap(ErrNotFound, "use case not found", goerr.V("id", uc.ID))
	}
	if _, ok := s.processes[uc.ProcessID]; !ok {
		return goerr.Wrap(ErrConflict, "use case references unknown process", goerr.V("process_id", uc.ProcessID))
	}
	next := copyUseCase(cur)
	next.Label = uc.Label
	next.Description = uc.Description
	next.ProcessID = uc.ProcessID
	next.Attributes = append([]scoring.Attribute(nil), uc.Attributes...)
	next.State = StateDraft
	next.UpdatedAt = s.now()
	s.useCases[uc.ID] = next

	uc.State = next.State
	uc.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *MemoryStore) DeleteUseCase(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.useCases[id]; !ok {
		return goerr.Wrap(ErrNotFound, "use case not found", goerr.V("id", id))
	}
	delete(s.useCases, id)
	return nil
}

func (s *MemoryStore) SaveRating(_ context.Context, id uuid.UUID, rating scoring.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc, ok := s.useCases[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "use case not found", goerr.V("id", id))
	}
	ts := s.now()
	score := rating.Score
	uc.State = StateRated
	uc.Score = &score
	uc.SubScores = append([]scoring.SubScore(nil), rating.SubScores...)
	uc.RatingError = ""
	uc.RatedAt = &ts
	uc.UpdatedAt = ts
	return nil
}

func (s *MemoryStore) SaveRatingFailure(_ context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc, ok := s.useCases[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "use case not found", goerr.V("id", id))
	}
	ts := s.now()
	uc.State = StateFailed
	uc.Score = nil
	uc.SubScores = nil
	uc.RatingError = reason
	uc.RatedAt = &ts
	uc.UpdatedAt = ts
	return nil
}

// --- Processes ---

func (s *MemoryStore) CreateProcess(_ context.Context, p *Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.processes {
		if existing.Label == p.Label {
			return goerr.Wrap(ErrConflict, "process label already exists", goerr.V("label", p.Label))
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	if p.ValueWeights == nil {
		p.ValueWeights = map[string]float64{}
	}
	s.processes[p.ID] = copyProcess(p)
	return nil
}

func (s *MemoryStore) GetProcess(_ context.Context, id uuid.UUID) (*Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.processes[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}
	return copyProcess(p), nil
}

func (s *MemoryStore) ListProcesses(_ context.Context) ([]*Process, error) {
	s.mu.RLock()
	out := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		out = append(out, copyProcess(p))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *MemoryStore) DeleteProcess(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processes[id]; !ok {
		return goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}
	for _, uc := range s.useCases {
		if uc.ProcessID == id {
			return goerr.Wrap(ErrConflict, "process is referenced by use cases", goerr.V("id", id))
		}
	}
	delete(s.processes, id)
	return nil
}

// SetProcessWeights upserts value weights. Either all of them are applied or
// none is.
func (s *MemoryStore) SetProcessWeights(_ context.Context, id uuid.UUID, weights map[string]float64) error {
	if err := validateWeights(weights); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}
	for label, w := range weights {
		p.ValueWeights[label] = w
	}
	p.UpdatedAt = s.now()
	return nil
}

// --- Judgments ---

func (s *MemoryStore) ReplaceJudgments(_ context.Context, judgments []*Judgment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	next := make([]*Judgment, 0, len(judgments))
	for _, j := range judgments {
		j.ID = uuid.New()
		j.CreatedAt = ts
		c := *j
		next = append(next, &c)
	}
	s.judgments = next
	return nil
}

func (s *MemoryStore) ListJudgments(_ context.Context) ([]*Judgment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Judgment, 0, len(s.judgments))
	for _, j := range s.judgments {
		c := *j
		out = append(out, &c)
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
