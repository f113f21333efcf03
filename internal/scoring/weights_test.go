package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyJudgmentsCategoriesLayer(t *testing.T) {
	tree := DefaultTemplate()
	pairs := []CategoryPair{
		{Layer: LayerCategories, Category1: LabelStrategic, Category2: LabelRisk, Importance: 7},
		{Layer: LayerCategories, Category1: LabelRisk, Category2: LabelValue, Importance: 7},
		{Layer: LayerCategories, Category1: LabelStrategic, Category2: LabelValue, Importance: 5},
	}

	out, layers, err := ApplyJudgments(tree, pairs)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, LayerCategories, layers[0].Layer)

	assert.InDelta(t, 4.0/7, out.Strategic.Weight, 1e-9)
	assert.InDelta(t, 2.0/7, out.Risk.Weight, 1e-9)
	assert.InDelta(t, 1.0/7, out.Value.Weight, 1e-9)
	for _, c := range out.Risk.Categories {
		assert.Equal(t, 1.0, c.CategoryWeight())
	}

	assert.Equal(t, 1.0, tree.Strategic.Weight, "input tree must not change")
	assert.NoError(t, out.Validate())
}

func TestApplyJudgmentsRiskLayer(t *testing.T) {
	tree := DefaultTemplate()
	pairs := []CategoryPair{
		{Layer: LayerRisk, Category1: "State of data", Category2: "Challenges and issues", Importance: 1},
	}

	out, layers, err := ApplyJudgments(tree, pairs)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, LayerRisk, layers[0].Layer)
	assert.InDelta(t, 1.0, sum(layers[0].Weights), 1e-9)

	assert.Equal(t, 1.0, out.Strategic.Weight)
	assert.Equal(t, 1.0, out.Risk.Weight)
	assert.Equal(t, 1.0, out.Value.Weight)
	assert.Greater(t, out.Risk.Categories[1].CategoryWeight(), out.Risk.Categories[0].CategoryWeight())

	for _, c := range tree.Risk.Categories {
		assert.Equal(t, 1.0, c.CategoryWeight(), "input tree must not change")
	}
}

func TestApplyJudgmentsNoPairs(t *testing.T) {
	tree := DefaultTemplate()
	out, layers, err := ApplyJudgments(tree, nil)
	require.NoError(t, err)
	assert.Empty(t, layers)
	assert.Equal(t, tree.Labels(), out.Labels())
}

func TestApplyJudgmentsErrors(t *testing.T) {
	tree := DefaultTemplate()

	_, _, err := ApplyJudgments(tree, []CategoryPair{{Layer: "value", Category1: "Time", Category2: "Cost", Importance: 3}})
	assert.ErrorIs(t, err, ErrInvalidJudgment)

	_, _, err = ApplyJudgments(tree, []CategoryPair{{Layer: LayerRisk, Category1: LabelStrategic, Category2: "State of data", Importance: 3}})
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestCheckLayers(t *testing.T) {
	tree := DefaultTemplate()
	pairs := []CategoryPair{
		{Layer: LayerCategories, Category1: LabelStrategic, Category2: LabelRisk, Importance: 1},
		{Layer: LayerCategories, Category1: LabelRisk, Category2: LabelValue, Importance: 1},
		{Layer: LayerCategories, Category1: LabelValue, Category2: LabelStrategic, Importance: 1},
	}
	_, layers, err := ApplyJudgments(tree, pairs)
	require.NoError(t, err)

	assert.ErrorIs(t, CheckLayers(layers, DefaultMaxConsistencyRatio), ErrInconsistentJudgments)
	assert.NoError(t, CheckLayers(layers, 100))
}
