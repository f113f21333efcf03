package scoring

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultMaxConsistencyRatio is the conventional AHP acceptance threshold.
const DefaultMaxConsistencyRatio = 0.1

const (
	powerIterations  = 1000
	powerTolerance   = 1e-12
	consistencyFloor = 1e-12
)

// randomIndex holds Saaty's random consistency index for matrices of size 1..15.
var randomIndex = []float64{0, 0, 0.58, 0.90, 1.12, 1.24, 1.32, 1.41, 1.45, 1.49, 1.51, 1.48, 1.56, 1.57, 1.59}

// WeightVector is the solver output: one weight per label plus consistency figures.
type WeightVector struct {
	Labels           []string  `json:"labels"`
	Weights          []float64 `json:"weights"`
	LambdaMax        float64   `json:"lambda_max"`
	ConsistencyIndex float64   `json:"consistency_index"`
	ConsistencyRatio float64   `json:"consistency_ratio"`
}

// Weight returns the weight derived for label.
func (v WeightVector) Weight(label string) (float64, bool) {
	for i, l := range v.Labels {
		if l == label {
			return v.Weights[i], true
		}
	}
	return 0, false
}

// Consistent reports whether the consistency ratio is within maxCR.
func (v WeightVector) Consistent(maxCR float64) bool {
	return v.ConsistencyRatio <= maxCR
}

// Check returns ErrInconsistentJudgments when the consistency ratio exceeds maxCR.
func (v WeightVector) Check(maxCR float64) error {
	if v.Consistent(maxCR) {
		return nil
	}
	return goerr.Wrap(ErrInconsistentJudgments, "consistency ratio above threshold",
		goerr.V("consistency_ratio", v.ConsistencyRatio), goerr.V("max", maxCR))
}

// ComputeWeights derives normalized AHP weights for labels from the pairwise
// judgments. Pairs that are not judged count as equal importance. The result
// always sums to 1; the consistency ratio is reported, not enforced.
func ComputeWeights(labels []string, pairs []CategoryPair) (WeightVector, error) {
	n := len(labels)
	if n == 0 {
		return WeightVector{}, goerr.Wrap(ErrInvalidJudgment, "no labels to weight")
	}

	index := make(map[string]int, n)
	for i, l := range labels {
		if _, ok := index[l]; ok {
			return WeightVector{}, goerr.Wrap(ErrInvalidJudgment, "duplicate label", goerr.V(LabelKey, l))
		}
		index[l] = i
	}

	m := neutralMatrix(n)
	for _, p := range pairs {
		pw, err := ToPairWeighting(p)
		if err != nil {
			return WeightVector{}, err
		}
		i, ok := index[pw.Label1]
		if !ok {
			return WeightVector{}, goerr.Wrap(ErrUnknownLabel, "unknown first category", goerr.V(LabelKey, pw.Label1))
		}
		j, ok := index[pw.Label2]
		if !ok {
			return WeightVector{}, goerr.Wrap(ErrUnknownLabel, "unknown second category", goerr.V(LabelKey, pw.Label2))
		}
		if i == j {
			return WeightVector{}, goerr.Wrap(ErrInvalidJudgment, "category compared with itself", goerr.V(LabelKey, pw.Label1))
		}
		// Both cells are always written so the matrix stays reciprocal, even
		// when the same pair was judged before in the other orientation.
		m[i][j] = pw.Ratio
		m[j][i] = 1 / pw.Ratio
	}

	weights := principalEigenvector(m)
	lambda := lambdaMax(m, weights)

	result := WeightVector{
		Labels:    append([]string(nil), labels...),
		Weights:   weights,
		LambdaMax: lambda,
	}
	if n > 2 {
		ci := (lambda - float64(n)) / float64(n-1)
		if math.Abs(ci) < consistencyFloor {
			ci = 0
		}
		result.ConsistencyIndex = ci
		result.ConsistencyRatio = ci / randomIndexFor(n)
	}
	return result, nil
}

func neutralMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = 1
		}
	}
	return m
}

// principalEigenvector approximates the dominant eigenvector of a positive
// reciprocal matrix by power iteration, normalized to sum to 1.
func principalEigenvector(m [][]float64) []float64 {
	n := len(m)
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	next := make([]float64, n)
	for iter := 0; iter < powerIterations; iter++ {
		multiply(m, w, next)
		normalize(next)

		var delta float64
		for i := range w {
			delta = math.Max(delta, math.Abs(next[i]-w[i]))
		}
		copy(w, next)
		if delta < powerTolerance {
			break
		}
	}
	return w
}

func lambdaMax(m [][]float64, w []float64) float64 {
	mw := make([]float64, len(w))
	multiply(m, w, mw)
	var sum float64
	for i := range w {
		sum += mw[i] / w[i]
	}
	return sum / float64(len(w))
}

func multiply(m [][]float64, v, out []float64) {
	for i := range m {
		var s float64
		for j := range m[i] {
			s += m[i][j] * v[j]
		}
		out[i] = s
	}
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	for i := range v {
		v[i] /= sum
	}
}

func randomIndexFor(n int) float64 {
	if n > len(randomIndex) {
		return randomIndex[len(randomIndex)-1]
	}
	return randomIndex[n-1]
}
