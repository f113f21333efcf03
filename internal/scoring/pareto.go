package scoring

// Candidate is a rated use case placed in sub-score space.
type Candidate struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Strategic float64 `json:"strategic"`
	Risk      float64 `json:"risk"`
	Value     float64 `json:"value"`
	Score     float64 `json:"score"`
}

// CandidateFromRating places a rating in sub-score space. Sub-scores are
// matched by branch position.
func CandidateFromRating(id, label string, r Rating) Candidate {
	c := Candidate{ID: id, Label: label, Score: r.Score}
	if len(r.SubScores) == 3 {
		c.Strategic = r.SubScores[0].Score
		c.Risk = r.SubScores[1].Score
		c.Value = r.SubScores[2].Score
	}
	return c
}

// ComputeFrontier returns the candidates no other candidate dominates, in
// input order. Higher is better on all three sub-scores; risk sub-scores
// measure how well risk is minimized.
// O(n^2) dominance check.
func ComputeFrontier(candidates []Candidate) []Candidate {
	if len(candidates) <= 1 {
		return candidates
	}

	var frontier []Candidate
	for i := range candidates {
		dominated := false
		for j := range candidates {
			if i == j {
				continue
			}
			if dominates(candidates[j], candidates[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, candidates[i])
		}
	}
	return frontier
}

// dominates reports whether a is at least as good as b everywhere and
// strictly better somewhere.
func dominates(a, b Candidate) bool {
	if a.Strategic < b.Strategic || a.Risk < b.Risk || a.Value < b.Value {
		return false
	}
	return a.Strategic > b.Strategic || a.Risk > b.Risk || a.Value > b.Value
}
