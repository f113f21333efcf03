package scoring

import "errors"

// Sentinel errors for the scoring core. Callers match them with errors.Is;
// the wrapped error carries the offending label, layer or value.
var (
	// Judgment errors
	ErrInvalidJudgment       = errors.New("invalid judgment")
	ErrUnknownLabel          = errors.New("unknown label")
	ErrInconsistentJudgments = errors.New("judgments are inconsistent")

	// Attribute lookup errors
	ErrAttributeNotFound  = errors.New("attribute not found")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrInvalidScore       = errors.New("attribute score is not finite")

	// Tree errors
	ErrInvalidCategoryShape = errors.New("category must have either items or subcategories")
	ErrDuplicateLabel       = errors.New("duplicate leaf label in weight tree")
	ErrInvalidWeight        = errors.New("weight must be finite and non-negative")

	// Aggregation errors
	ErrZeroWeightDenominator = errors.New("weights sum to zero")
)

// Context keys for error values
const (
	LabelKey      = "label"
	LayerKey      = "layer"
	ImportanceKey = "importance"
	WeightKey     = "weight"
	CategoryKey   = "category"
)
