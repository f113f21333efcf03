package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Prioritizer/internal/config"
	"github.com/MikeSquared-Agency/Prioritizer/internal/rating"
	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

const testAdminToken = "secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	handler http.Handler
	store   *store.MemoryStore
	svc     *rating.Service
}

func newTestServer(t *testing.T, opts rating.Options) *testServer {
	t.Helper()
	s := store.NewMemoryStore()
	svc, err := rating.New(s, nil, scoring.DefaultTemplate(), opts, nil, discardLogger())
	require.NoError(t, err)
	cfg := config.ServerConfig{AdminToken: testAdminToken}
	return &testServer{
		handler: NewRouter(svc, s, cfg, discardLogger()),
		store:   s,
		svc:     svc,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func uniformScores(score float64) map[string]float64 {
	scores := make(map[string]float64)
	for _, label := range scoring.DefaultTemplate().Labels() {
		scores[label] = score
	}
	return scores
}

func uniformAttributes(score float64) []scoring.Attribute {
	var attrs []scoring.Attribute
	for _, label := range scoring.DefaultTemplate().Labels() {
		attrs = append(attrs, scoring.Attribute{Label: label, Score: score})
	}
	return attrs
}

func valueWeights() map[string]float64 {
	return map[string]float64{"Time": 1, "Cost": 2, "Quality": 1, "Flexibility": 0.5}
}

func (ts *testServer) createProcess(t *testing.T, label string) *store.Process {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/processes", map[string]interface{}{
		"label":         label,
		"value_weights": valueWeights(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[store.Process](t, w)
	return &p
}

func TestComputeWeights(t *testing.T) {
	ts := newTestServer(t, rating.Options{})

	w := ts.do(t, http.MethodPost, "/api/v1/weights", map[string]interface{}{
		"labels": []string{"A", "B"},
		"pairs": []scoring.CategoryPair{
			{Category1: "A", Category2: "B", Importance: 7},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[computeWeightsResponse](t, w)
	require.Len(t, resp.Weights, 2)
	assert.InDelta(t, 2.0/3.0, resp.Weights[0], 1e-9)
	assert.InDelta(t, 1.0/3.0, resp.Weights[1], 1e-9)
	assert.True(t, resp.Consistent)
}

func TestComputeWeights_Errors(t *testing.T) {
	ts := newTestServer(t, rating.Options{})

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{
			name: "importance out of range",
			body: map[string]interface{}{
				"labels": []string{"A", "B"},
				"pairs":  []scoring.CategoryPair{{Category1: "A", Category2: "B", Importance: 16}},
			},
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown label",
			body: map[string]interface{}{
				"labels": []string{"A", "B"},
				"pairs":  []scoring.CategoryPair{{Category1: "A", Category2: "C", Importance: 3}},
			},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "no labels",
			body:   map[string]interface{}{"labels": []string{}},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "unknown field",
			body:   map[string]interface{}{"nope": true},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/weights", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRate(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	p := ts.createProcess(t, "Invoicing")

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		score  float64
	}{
		{
			name:   "by process",
			body:   map[string]interface{}{"attributes": uniformAttributes(4), "process_id": p.ID},
			status: http.StatusOK,
			score:  4,
		},
		{
			name:   "inline value weights",
			body:   map[string]interface{}{"attributes": uniformAttributes(2), "value_weights": valueWeights()},
			status: http.StatusOK,
			score:  2,
		},
		{
			name:   "missing attribute",
			body:   map[string]interface{}{"attributes": uniformAttributes(2)[1:], "value_weights": valueWeights()},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "unknown process",
			body:   map[string]interface{}{"attributes": uniformAttributes(2), "process_id": "7f1de2a2-8f3c-4b7e-9d55-3c1f0e2b4a11"},
			status: http.StatusNotFound,
		},
		{
			name:   "no weights source",
			body:   map[string]interface{}{"attributes": uniformAttributes(2)},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/ratings", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			r := decode[scoring.Rating](t, w)
			assert.InDelta(t, tt.score, r.Score, 1e-9)
			assert.Len(t, r.SubScores, 3)
		})
	}
}

func TestUseCaseLifecycle(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	p := ts.createProcess(t, "Procurement")

	w := ts.do(t, http.MethodPost, "/api/v1/usecases", map[string]interface{}{
		"label":      "Invoice matching",
		"process_id": p.ID,
		"scores":     uniformScores(3),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	uc := decode[store.UseCase](t, w)
	assert.Equal(t, store.StateDraft, uc.State)
	assert.Len(t, uc.Attributes, len(scoring.DefaultTemplate().Labels()))

	path := "/api/v1/usecases/" + uc.ID.String()

	w = ts.do(t, http.MethodPost, path+"/rate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rated := decode[store.UseCase](t, w)
	assert.Equal(t, store.StateRated, rated.State)
	require.NotNil(t, rated.Score)
	assert.InDelta(t, 3, *rated.Score, 1e-9)

	w = ts.do(t, http.MethodGet, path+"/explain", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	explained := decode[struct {
		Rating scoring.Rating `json:"rating"`
	}](t, w)
	assert.Len(t, explained.Rating.Breakdown, 3)

	w = ts.do(t, http.MethodPatch, path, map[string]interface{}{"label": "Three-way match"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode[store.UseCase](t, w)
	assert.Equal(t, "Three-way match", patched.Label)
	assert.Equal(t, store.StateDraft, patched.State)

	w = ts.do(t, http.MethodGet, "/api/v1/usecases?process_id="+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.UseCase](t, w), 1)

	w = ts.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateUseCase_Validation(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	p := ts.createProcess(t, "Procurement")

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"missing label", map[string]interface{}{"process_id": p.ID}, http.StatusBadRequest},
		{"missing process", map[string]interface{}{"label": "x"}, http.StatusBadRequest},
		{"unknown process", map[string]interface{}{"label": "x", "process_id": "7f1de2a2-8f3c-4b7e-9d55-3c1f0e2b4a11"}, http.StatusConflict},
		{"incomplete scores", map[string]interface{}{"label": "x", "process_id": p.ID, "scores": map[string]float64{"Goal1": 1}}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/usecases", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestInvalidID(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	w := ts.do(t, http.MethodGet, "/api/v1/usecases/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetProcessWeights_Rerates(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	p := ts.createProcess(t, "Procurement")

	scores := uniformScores(1)
	scores["Cost"] = 5
	w := ts.do(t, http.MethodPost, "/api/v1/usecases", map[string]interface{}{
		"label":      "Invoice matching",
		"process_id": p.ID,
		"scores":     scores,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	uc := decode[store.UseCase](t, w)

	w = ts.do(t, http.MethodPut, "/api/v1/processes/"+p.ID.String()+"/weights", map[string]interface{}{
		"weights": map[string]float64{"Time": 0, "Quality": 0, "Flexibility": 0},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		Process   store.Process           `json:"process"`
		Recompute rating.RecomputeSummary `json:"recompute"`
	}](t, w)
	assert.Equal(t, 1, resp.Recompute.Rated)
	assert.Equal(t, 0.0, resp.Process.ValueWeights["Time"])

	w = ts.do(t, http.MethodGet, "/api/v1/usecases/"+uc.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[store.UseCase](t, w)
	require.Len(t, got.SubScores, 3)
	// Only Cost carries weight in the value branch now.
	assert.InDelta(t, 5, got.SubScores[2].Score, 1e-9)
}

func TestSetProcessWeights_InvalidWeightIsAtomic(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	p := ts.createProcess(t, "Procurement")

	w := ts.do(t, http.MethodPut, "/api/v1/processes/"+p.ID.String()+"/weights", map[string]interface{}{
		"weights": map[string]float64{"Time": 9, "Cost": -1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/processes/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[store.Process](t, w)
	assert.Equal(t, p.ValueWeights, got.ValueWeights)
}

func TestDeleteProcess_InUse(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	p := ts.createProcess(t, "Procurement")
	w := ts.do(t, http.MethodPost, "/api/v1/usecases", map[string]interface{}{
		"label": "x", "process_id": p.ID, "scores": uniformScores(1),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/processes/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReplaceJudgments(t *testing.T) {
	consistent := []scoring.CategoryPair{
		{Layer: scoring.LayerCategories, Category1: scoring.LabelStrategic, Category2: scoring.LabelValue, Importance: 7},
	}
	cyclic := []scoring.CategoryPair{
		{Layer: scoring.LayerCategories, Category1: scoring.LabelStrategic, Category2: scoring.LabelRisk, Importance: 1},
		{Layer: scoring.LayerCategories, Category1: scoring.LabelRisk, Category2: scoring.LabelValue, Importance: 1},
		{Layer: scoring.LayerCategories, Category1: scoring.LabelValue, Category2: scoring.LabelStrategic, Importance: 1},
	}
	auth := []string{"Authorization", "Bearer " + testAdminToken}

	tests := []struct {
		name    string
		pairs   []scoring.CategoryPair
		headers []string
		status  int
	}{
		{"unauthorized", consistent, nil, http.StatusUnauthorized},
		{"wrong token", consistent, []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"consistent", consistent, auth, http.StatusOK},
		{"inconsistent", cyclic, auth, http.StatusConflict},
		{"unknown layer", []scoring.CategoryPair{{Layer: "x", Category1: "a", Category2: "b", Importance: 8}}, auth, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, rating.Options{RejectInconsistent: true})
			w := ts.do(t, http.MethodPut, "/api/v1/template/judgments",
				map[string]interface{}{"pairs": tt.pairs}, tt.headers...)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestReplaceJudgments_ReweightsTemplate(t *testing.T) {
	ts := newTestServer(t, rating.Options{RejectInconsistent: true})
	pairs := []scoring.CategoryPair{
		{Layer: scoring.LayerCategories, Category1: scoring.LabelStrategic, Category2: scoring.LabelValue, Importance: 7},
	}

	w := ts.do(t, http.MethodPut, "/api/v1/template/judgments",
		map[string]interface{}{"pairs": pairs}, "Authorization", "Bearer "+testAdminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tree := ts.svc.Tree()
	assert.Greater(t, tree.Strategic.Weight, tree.Value.Weight)

	judgments, err := ts.store.ListJudgments(t.Context())
	require.NoError(t, err)
	assert.Len(t, judgments, 1)
}

func TestRecompute(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	p := ts.createProcess(t, "Procurement")
	for _, label := range []string{"a", "b"} {
		w := ts.do(t, http.MethodPost, "/api/v1/usecases", map[string]interface{}{
			"label": label, "process_id": p.ID, "scores": uniformScores(2),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := ts.do(t, http.MethodPost, "/api/v1/ratings/recompute", nil, "Authorization", "Bearer "+testAdminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[rating.RecomputeSummary](t, w)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Rated)
	assert.Empty(t, summary.Failures)

	w = ts.do(t, http.MethodGet, "/api/v1/frontier", nil)
	require.Equal(t, http.StatusOK, w.Code)
	// Equal candidates do not dominate each other.
	assert.Len(t, decode[[]scoring.Candidate](t, w), 2)
}

func TestTemplate(t *testing.T) {
	ts := newTestServer(t, rating.Options{})
	w := ts.do(t, http.MethodGet, "/api/v1/template", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Labels []string `json:"labels"`
	}](t, w)
	assert.Equal(t, scoring.DefaultTemplate().Labels(), resp.Labels)
}

func TestMetricsRouter_Health(t *testing.T) {
	h := NewMetricsRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
