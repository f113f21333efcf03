package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Prioritizer/internal/config"
	"github.com/MikeSquared-Agency/Prioritizer/internal/rating"
	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Scoring.TemplatePath = ""
	return cfg
}

const judgmentsYAML = `pairs:
  - layer: categories
    category1: Strategic goals
    category2: Value potential
    importance: 5
  - layer: risk
    category1: State of data
    category2: Skills and capabilities
    importance: 7
`

func TestRunWeights(t *testing.T) {
	path := writeFile(t, "judgments.yaml", judgmentsYAML)

	var buf bytes.Buffer
	require.NoError(t, runWeights(&buf, testConfig(t), path, false))

	out := buf.String()
	assert.Contains(t, out, "categories")
	assert.Contains(t, out, "State of data")
	assert.Contains(t, out, "categories: lambda_max=")
	assert.Contains(t, out, "risk: lambda_max=")
	assert.NotContains(t, out, "@@")
}

func TestRunWeights_Diff(t *testing.T) {
	path := writeFile(t, "judgments.yaml", judgmentsYAML)

	var buf bytes.Buffer
	require.NoError(t, runWeights(&buf, testConfig(t), path, true))

	out := buf.String()
	assert.Contains(t, out, "--- current")
	assert.Contains(t, out, "+++ reweighted")
}

func TestRunWeights_UnknownLabel(t *testing.T) {
	path := writeFile(t, "judgments.yaml", `pairs:
  - layer: risk
    category1: State of data
    category2: Weather
    importance: 3
`)
	err := runWeights(io.Discard, testConfig(t), path, false)
	assert.ErrorIs(t, err, scoring.ErrUnknownLabel)
}

func useCaseYAML(score string) string {
	out := "label: Invoice matching\nscores:\n"
	for _, label := range scoring.DefaultTemplate().Labels() {
		out += "  " + label + ": " + score + "\n"
	}
	out += "value_weights:\n  Time: 1\n  Cost: 2\n  Quality: 1\n  Flexibility: 1\n"
	return out
}

func TestRunRate(t *testing.T) {
	path := writeFile(t, "usecase.yaml", useCaseYAML("3"))

	var buf bytes.Buffer
	require.NoError(t, runRate(&buf, testConfig(t), discardLogger(), path, "", false))

	out := buf.String()
	assert.Contains(t, out, "Invoice matching: 3.000")
	assert.Contains(t, out, "Risk minimization: 3.000")
}

func TestRunRate_Explain(t *testing.T) {
	path := writeFile(t, "usecase.yaml", useCaseYAML("2"))
	judgments := writeFile(t, "judgments.yaml", judgmentsYAML)

	var buf bytes.Buffer
	require.NoError(t, runRate(&buf, testConfig(t), discardLogger(), path, judgments, true))
	assert.Contains(t, buf.String(), "Score: 2.000")
}

const cyclicJudgmentsYAML = `pairs:
  - layer: categories
    category1: Strategic goals
    category2: Risk minimization
    importance: 1
  - layer: categories
    category1: Risk minimization
    category2: Value potential
    importance: 1
  - layer: categories
    category1: Value potential
    category2: Strategic goals
    importance: 1
`

func TestRunRate_InconsistentJudgments(t *testing.T) {
	path := writeFile(t, "usecase.yaml", useCaseYAML("3"))
	judgments := writeFile(t, "judgments.yaml", cyclicJudgmentsYAML)

	t.Run("rejected", func(t *testing.T) {
		var buf bytes.Buffer
		err := runRate(&buf, testConfig(t), discardLogger(), path, judgments, false)
		assert.ErrorIs(t, err, scoring.ErrInconsistentJudgments)
		assert.Empty(t, buf.String())
	})

	t.Run("warned", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Scoring.RejectInconsistent = false
		var logs, buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))

		require.NoError(t, runRate(&buf, cfg, logger, path, judgments, false))
		assert.Contains(t, buf.String(), "Invoice matching: 3.000")
		assert.Contains(t, logs.String(), "inconsistent judgments")
	})
}

func TestRunRate_MissingValueWeight(t *testing.T) {
	content := "label: x\nscores:\n"
	for _, label := range scoring.DefaultTemplate().Labels() {
		content += "  " + label + ": 1\n"
	}
	content += "value_weights:\n  Time: 1\n"
	path := writeFile(t, "usecase.yaml", content)

	err := runRate(io.Discard, testConfig(t), discardLogger(), path, "", false)
	assert.ErrorIs(t, err, scoring.ErrUnknownLabel)
}

func TestRunExport(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	p := &store.Process{Label: "Procurement", ValueWeights: map[string]float64{"Time": 1, "Cost": 1, "Quality": 1, "Flexibility": 1}}
	require.NoError(t, s.CreateProcess(ctx, p))

	attrs := make([]scoring.Attribute, 0)
	for _, label := range scoring.DefaultTemplate().Labels() {
		attrs = append(attrs, scoring.Attribute{Label: label, Score: 4})
	}
	uc := &store.UseCase{Label: "Invoice matching", ProcessID: p.ID, Attributes: attrs}
	require.NoError(t, s.CreateUseCase(ctx, uc))

	svc, err := rating.New(s, nil, scoring.DefaultTemplate(), rating.Options{}, nil, discardLogger())
	require.NoError(t, err)
	_, err = svc.RateUseCase(ctx, uc.ID)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "ratings.parquet")
	var buf bytes.Buffer
	require.NoError(t, runExport(ctx, &buf, s, discardLogger(), out, true))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Contains(t, buf.String(), "Invoice matching")
	assert.Contains(t, buf.String(), "4.000")
}
