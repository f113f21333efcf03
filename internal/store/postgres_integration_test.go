//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	require.NoError(t, Migrate(dbURL, slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE judgments, use_cases, process_weights, processes CASCADE")
		s.Close()
	})

	return s
}

func TestPostgresUseCaseRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	p := &Process{Label: "Order to cash", ValueWeights: map[string]float64{"Time": 2, "Cost": 1}}
	require.NoError(t, s.CreateProcess(ctx, p))
	assert.NotEqual(t, uuid.Nil, p.ID)

	uc := &UseCase{
		Label:      "Invoice matching",
		ProcessID:  p.ID,
		Attributes: []scoring.Attribute{{Label: "Goal1", Score: 4}},
	}
	require.NoError(t, s.CreateUseCase(ctx, uc))
	assert.Equal(t, StateDraft, uc.State)

	got, err := s.GetUseCase(ctx, uc.ID)
	require.NoError(t, err)
	assert.Equal(t, uc.Attributes, got.Attributes)
	assert.Nil(t, got.Score)

	rating := scoring.Rating{Score: 3.5, SubScores: []scoring.SubScore{{Label: scoring.LabelValue, Score: 3.5}}}
	require.NoError(t, s.SaveRating(ctx, uc.ID, rating))
	got, err = s.GetUseCase(ctx, uc.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRated, got.State)
	require.NotNil(t, got.Score)
	assert.Equal(t, 3.5, *got.Score)
	assert.Equal(t, rating.SubScores, got.SubScores)

	list, err := s.ListUseCases(ctx, UseCaseFilter{ProcessID: &p.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteUseCase(ctx, uc.ID))
	_, err = s.GetUseCase(ctx, uc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresProcessWeights(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	p := &Process{Label: "Procure to pay", ValueWeights: map[string]float64{"Time": 1}}
	require.NoError(t, s.CreateProcess(ctx, p))
	assert.ErrorIs(t, s.CreateProcess(ctx, &Process{Label: "Procure to pay"}), ErrConflict)

	require.NoError(t, s.SetProcessWeights(ctx, p.ID, map[string]float64{"Time": 4, "Quality": 0.5}))

	got, err := s.GetProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Time": 4, "Quality": 0.5}, got.ValueWeights)

	err = s.SetProcessWeights(ctx, p.ID, map[string]float64{"Time": 8, "Flexibility": -1})
	assert.ErrorIs(t, err, scoring.ErrInvalidWeight)
	assert.ErrorIs(t, s.SetProcessWeights(ctx, uuid.New(), map[string]float64{"Time": 1}), ErrNotFound)

	procs, err := s.ListProcesses(ctx)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, map[string]float64{"Time": 4, "Quality": 0.5}, procs[0].ValueWeights)
}

func TestPostgresJudgmentsKeepOrder(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	pairs := []scoring.CategoryPair{
		{Layer: scoring.LayerRisk, Category1: "State of data", Category2: "Challenges and issues", Importance: 3},
		{Layer: scoring.LayerCategories, Category1: scoring.LabelStrategic, Category2: scoring.LabelValue, Importance: 12},
		{Layer: scoring.LayerCategories, Category1: scoring.LabelRisk, Category2: scoring.LabelValue, Importance: 8},
	}
	require.NoError(t, s.ReplaceJudgments(ctx, JudgmentsFromPairs(pairs)))

	got, err := s.ListJudgments(ctx)
	require.NoError(t, err)
	assert.Equal(t, pairs, Pairs(got))
}
