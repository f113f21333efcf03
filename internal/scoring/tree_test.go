package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplate(t *testing.T) {
	tree := DefaultTemplate()
	require.NoError(t, tree.Validate())

	assert.Equal(t, LabelStrategic, tree.Strategic.Label)
	assert.Equal(t, LabelRisk, tree.Risk.Label)
	assert.Equal(t, LabelValue, tree.Value.Label)
	assert.Equal(t, 1.0, tree.Risk.RiskFactor)
	assert.Len(t, tree.Labels(), 18)
	assert.Equal(t, []string{
		"Challenges and issues",
		"State of data",
		"Organizational support",
		"Skills and capabilities",
	}, tree.RiskLabels())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WeightTree)
		want   error
	}{
		{
			name:   "leaf without items",
			mutate: func(tr *WeightTree) { tr.Strategic.Items = nil },
			want:   ErrInvalidCategoryShape,
		},
		{
			name:   "composite without subcategories",
			mutate: func(tr *WeightTree) { tr.Risk.Categories = nil },
			want:   ErrInvalidCategoryShape,
		},
		{
			name:   "nil subcategory",
			mutate: func(tr *WeightTree) { tr.Risk.Categories = []Category{nil} },
			want:   ErrInvalidCategoryShape,
		},
		{
			name:   "negative item weight",
			mutate: func(tr *WeightTree) { tr.Value.Items = []Item{{Label: "Time", Weight: -1}} },
			want:   ErrInvalidWeight,
		},
		{
			name:   "negative risk factor",
			mutate: func(tr *WeightTree) { tr.Risk.RiskFactor = -0.5 },
			want:   ErrInvalidWeight,
		},
		{
			name: "duplicate leaf label",
			mutate: func(tr *WeightTree) {
				tr.Value.Items = append([]Item(nil), tr.Value.Items...)
				tr.Value.Items[0].Label = "Goal1"
			},
			want: ErrDuplicateLabel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := DefaultTemplate()
			tt.mutate(&tree)
			assert.ErrorIs(t, tree.Validate(), tt.want)
		})
	}
}

func TestNestedCompositeLabels(t *testing.T) {
	tree := DefaultTemplate()
	tree.Risk.Categories = []Category{
		CompositeCategory{
			Label:  "Nested",
			Weight: 1,
			Categories: []Category{
				LeafCategory{Label: "Inner", Weight: 1, Items: []Item{{Label: "Deep", Weight: 1}}},
			},
		},
	}
	require.NoError(t, tree.Validate())
	assert.Contains(t, tree.Labels(), "Deep")
}
