package rating

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Prioritizer/internal/hermes"
	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

type Options struct {
	MaxConsistencyRatio float64
	RejectInconsistent  bool
	Workers             int
}

// Service rates use cases against the current weight template and keeps
// stored ratings in step with template and catalog changes.
type Service struct {
	store   store.Store
	hermes  hermes.Client
	base    scoring.WeightTree
	rater   atomic.Pointer[scoring.Rater]
	opts    Options
	metrics *Metrics
	logger  *slog.Logger

	// deriveMu serializes template reweighting.
	deriveMu sync.Mutex
}

// New builds a service around the base template. h may be nil; metrics may
// be nil.
func New(s store.Store, h hermes.Client, base scoring.WeightTree, opts Options, metrics *Metrics, logger *slog.Logger) (*Service, error) {
	rater, err := scoring.NewRater(base, logger)
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxConsistencyRatio <= 0 {
		opts.MaxConsistencyRatio = scoring.DefaultMaxConsistencyRatio
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	svc := &Service{
		store:   s,
		hermes:  h,
		base:    base,
		opts:    opts,
		metrics: metrics,
		logger:  logger,
	}
	svc.rater.Store(rater)
	return svc, nil
}

// Tree returns the weight template ratings are currently computed against.
func (s *Service) Tree() scoring.WeightTree {
	return s.rater.Load().Tree()
}

// Restore reapplies persisted judgments to the base template. Judgments that
// no longer fit the template are logged and ignored.
func (s *Service) Restore(ctx context.Context) error {
	judgments, err := s.store.ListJudgments(ctx)
	if err != nil {
		return goerr.Wrap(err, "load judgments")
	}
	if len(judgments) == 0 {
		return nil
	}
	tree, layers, err := scoring.ApplyJudgments(s.base, store.Pairs(judgments))
	if err != nil {
		s.logger.Warn("stored judgments do not fit template, using base weights", "error", err)
		return nil
	}
	rater, err := scoring.NewRater(tree, s.logger)
	if err != nil {
		s.logger.Warn("reweighted template is invalid, using base weights", "error", err)
		return nil
	}
	s.rater.Store(rater)
	s.logger.Info("template weights restored", "judgments", len(judgments), "layers", len(layers))
	return nil
}

// Rate rates an ad-hoc attribute list with the value weights of a stored process.
func (s *Service) Rate(ctx context.Context, attrs []scoring.Attribute, processID uuid.UUID) (scoring.Rating, error) {
	p, err := s.store.GetProcess(ctx, processID)
	if err != nil {
		return scoring.Rating{}, err
	}
	return s.RateWithWeights(attrs, scoring.StaticWeights(p.ValueWeights))
}

// RateWithWeights rates an attribute list with explicit value weights.
func (s *Service) RateWithWeights(attrs []scoring.Attribute, values scoring.ValueWeightResolver) (scoring.Rating, error) {
	r, err := s.rater.Load().Rate(attrs, values)
	s.observe(r, err)
	return r, err
}

// Explain rates a stored use case without persisting the result.
func (s *Service) Explain(ctx context.Context, id uuid.UUID) (scoring.Rating, error) {
	uc, err := s.store.GetUseCase(ctx, id)
	if err != nil {
		return scoring.Rating{}, err
	}
	return s.Rate(ctx, uc.Attributes, uc.ProcessID)
}

// RateUseCase rates a stored use case and persists the outcome. A rating
// failure is recorded on the use case and returned.
func (s *Service) RateUseCase(ctx context.Context, id uuid.UUID) (*store.UseCase, error) {
	uc, err := s.store.GetUseCase(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetProcess(ctx, uc.ProcessID)
	if err != nil {
		return nil, err
	}
	if err := s.rateAndSave(ctx, s.rater.Load(), uc, scoring.StaticWeights(p.ValueWeights)); err != nil {
		return nil, err
	}
	return s.store.GetUseCase(ctx, id)
}

func (s *Service) rateAndSave(ctx context.Context, rater *scoring.Rater, uc *store.UseCase, values scoring.ValueWeightResolver) error {
	r, rateErr := rater.Rate(uc.Attributes, values)
	s.observe(r, rateErr)

	if rateErr != nil {
		if err := s.store.SaveRatingFailure(ctx, uc.ID, rateErr.Error()); err != nil {
			return goerr.Wrap(err, "save rating failure", goerr.V("use_case_id", uc.ID))
		}
		s.publish(hermes.SubjectUseCaseFailed(uc.ID.String()), hermes.UseCaseFailedEvent{
			UseCaseID: uc.ID.String(),
			Error:     rateErr.Error(),
		})
		return goerr.Wrap(rateErr, "rate use case", goerr.V("use_case_id", uc.ID))
	}

	if err := s.store.SaveRating(ctx, uc.ID, r); err != nil {
		return goerr.Wrap(err, "save rating", goerr.V("use_case_id", uc.ID))
	}
	subs := make([]hermes.SubScore, 0, len(r.SubScores))
	for _, sub := range r.SubScores {
		subs = append(subs, hermes.SubScore{Label: sub.Label, Score: sub.Score})
	}
	s.publish(hermes.SubjectUseCaseRated(uc.ID.String()), hermes.UseCaseRatedEvent{
		UseCaseID: uc.ID.String(),
		ProcessID: uc.ProcessID.String(),
		Score:     r.Score,
		SubScores: subs,
		RatedAt:   time.Now().UTC(),
	})
	return nil
}

func (s *Service) observe(r scoring.Rating, err error) {
	if err != nil {
		s.metrics.Ratings.WithLabelValues(resultError).Inc()
		return
	}
	s.metrics.Ratings.WithLabelValues(resultOK).Inc()
	s.metrics.Scores.Observe(r.Score)
}

// Failure records one use case that could not be rated during a batch.
type Failure struct {
	UseCaseID uuid.UUID `json:"use_case_id"`
	Error     string    `json:"error"`
}

// RecomputeSummary reports a batch recomputation.
type RecomputeSummary struct {
	Total    int           `json:"total"`
	Rated    int           `json:"rated"`
	Failures []Failure     `json:"failures,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RecomputeAll rates every stored use case.
func (s *Service) RecomputeAll(ctx context.Context) (RecomputeSummary, error) {
	return s.recompute(ctx, store.UseCaseFilter{})
}

// RecomputeProcess rates the use cases of one process.
func (s *Service) RecomputeProcess(ctx context.Context, processID uuid.UUID) (RecomputeSummary, error) {
	return s.recompute(ctx, store.UseCaseFilter{ProcessID: &processID})
}

// recompute rates the selected use cases in parallel. Every use case is rated
// against the same template and catalog snapshot; individual failures are
// collected in the summary and do not stop the batch.
func (s *Service) recompute(ctx context.Context, filter store.UseCaseFilter) (RecomputeSummary, error) {
	start := time.Now()
	summary := RecomputeSummary{}

	useCases, err := s.store.ListUseCases(ctx, filter)
	if err != nil {
		return summary, goerr.Wrap(err, "list use cases")
	}
	catalog, err := store.ProcessResolver(ctx, s.store)
	if err != nil {
		return summary, err
	}
	rater := s.rater.Load()
	summary.Total = len(useCases)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, uc := range useCases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := s.rateAndSave(gctx, rater, uc, scoring.ForProcess(catalog, uc.ProcessID.String()))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("use case rating failed", "use_case_id", uc.ID, "error", err)
				summary.Failures = append(summary.Failures, Failure{UseCaseID: uc.ID, Error: err.Error()})
				return nil
			}
			summary.Rated++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, goerr.Wrap(err, "recompute ratings")
	}

	summary.Duration = time.Since(start)
	s.metrics.RecomputeDuration.Observe(summary.Duration.Seconds())
	s.logger.Info("ratings recomputed",
		"total", summary.Total,
		"rated", summary.Rated,
		"failed", len(summary.Failures),
		"duration", summary.Duration,
	)
	s.publish(hermes.SubjectRatingsRecomputed, hermes.RatingsRecomputedEvent{
		Total:      summary.Total,
		Rated:      summary.Rated,
		Failed:     len(summary.Failures),
		DurationMs: summary.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	return summary, nil
}

// DeriveResult is the outcome of reweighting the template.
type DeriveResult struct {
	Tree      scoring.WeightTree     `json:"template"`
	Layers    []scoring.LayerWeights `json:"layers"`
	Recompute RecomputeSummary       `json:"recompute"`
}

// DeriveWeights replaces the template judgments with pairs, reweights the base
// template, and rerates every use case against the result. Inconsistent
// layers are rejected when the service is configured to do so.
func (s *Service) DeriveWeights(ctx context.Context, pairs []scoring.CategoryPair) (DeriveResult, error) {
	s.deriveMu.Lock()
	defer s.deriveMu.Unlock()

	tree, layers, err := scoring.ApplyJudgments(s.base, pairs)
	if err != nil {
		return DeriveResult{}, err
	}
	for _, l := range layers {
		if l.Consistent(s.opts.MaxConsistencyRatio) {
			continue
		}
		s.metrics.Inconsistent.WithLabelValues(string(l.Layer)).Inc()
		s.logger.Warn("inconsistent judgments",
			"layer", l.Layer,
			"consistency_ratio", l.ConsistencyRatio,
			"max", s.opts.MaxConsistencyRatio,
		)
	}
	if s.opts.RejectInconsistent {
		if err := scoring.CheckLayers(layers, s.opts.MaxConsistencyRatio); err != nil {
			return DeriveResult{Tree: tree, Layers: layers}, err
		}
	}

	rater, err := scoring.NewRater(tree, s.logger)
	if err != nil {
		return DeriveResult{}, err
	}
	if err := s.store.ReplaceJudgments(ctx, store.JudgmentsFromPairs(pairs)); err != nil {
		return DeriveResult{}, goerr.Wrap(err, "save judgments")
	}
	s.rater.Store(rater)

	evt := hermes.WeightsDerivedEvent{Judgments: len(pairs), Timestamp: time.Now().UTC()}
	for _, l := range layers {
		weights := make(map[string]float64, len(l.Labels))
		for i, label := range l.Labels {
			weights[label] = l.Weights[i]
		}
		evt.Layers = append(evt.Layers, hermes.LayerWeights{
			Layer:            string(l.Layer),
			Weights:          weights,
			ConsistencyRatio: l.ConsistencyRatio,
		})
	}
	s.publish(hermes.SubjectWeightsDerived, evt)

	summary, err := s.RecomputeAll(ctx)
	return DeriveResult{Tree: tree, Layers: layers, Recompute: summary}, err
}

// Frontier returns the rated use cases no other rated use case dominates.
func (s *Service) Frontier(ctx context.Context) ([]scoring.Candidate, error) {
	rated := store.StateRated
	useCases, err := s.store.ListUseCases(ctx, store.UseCaseFilter{State: &rated})
	if err != nil {
		return nil, goerr.Wrap(err, "list rated use cases")
	}
	candidates := make([]scoring.Candidate, 0, len(useCases))
	for _, uc := range useCases {
		r := scoring.Rating{SubScores: uc.SubScores}
		if uc.Score != nil {
			r.Score = *uc.Score
		}
		candidates = append(candidates, scoring.CandidateFromRating(uc.ID.String(), uc.Label, r))
	}
	return scoring.ComputeFrontier(candidates), nil
}

// SetupSubscriptions rerates a process's use cases whenever the catalog
// announces a change to it.
func (s *Service) SetupSubscriptions(ctx context.Context) error {
	if s.hermes == nil {
		return nil
	}
	return s.hermes.Subscribe(hermes.SubjectProcessUpdated, func(subject string, data []byte) {
		s.handleProcessUpdated(ctx, subject, data)
	})
}

func (s *Service) handleProcessUpdated(ctx context.Context, subject string, data []byte) {
	raw, ok := hermes.ProcessIDFromSubject(subject)
	if len(data) > 0 {
		var evt hermes.ProcessUpdatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			s.logger.Warn("invalid process updated event", "subject", subject, "error", err)
		} else if evt.ProcessID != "" {
			raw, ok = evt.ProcessID, true
		}
	}
	if !ok {
		s.logger.Warn("process updated event without process id", "subject", subject)
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn("invalid process id in event", "process_id", raw, "error", err)
		return
	}
	if _, err := s.RecomputeProcess(ctx, id); err != nil {
		s.logger.Error("recompute after process update failed", "process_id", id, "error", err)
	}
}

func (s *Service) publish(subject string, evt interface{}) {
	if s.hermes == nil {
		return
	}
	if err := s.hermes.Publish(subject, evt); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
