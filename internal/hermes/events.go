package hermes

import "time"

type SubScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type UseCaseRatedEvent struct {
	UseCaseID string     `json:"use_case_id"`
	ProcessID string     `json:"process_id"`
	Score     float64    `json:"score"`
	SubScores []SubScore `json:"sub_scores"`
	RatedAt   time.Time  `json:"rated_at"`
}

type UseCaseFailedEvent struct {
	UseCaseID string `json:"use_case_id"`
	Error     string `json:"error"`
}

type LayerWeights struct {
	Layer            string             `json:"layer"`
	Weights          map[string]float64 `json:"weights"`
	ConsistencyRatio float64            `json:"consistency_ratio"`
}

type WeightsDerivedEvent struct {
	Judgments int            `json:"judgments"`
	Layers    []LayerWeights `json:"layers"`
	Timestamp time.Time      `json:"timestamp"`
}

type RatingsRecomputedEvent struct {
	Total      int       `json:"total"`
	Rated      int       `json:"rated"`
	Failed     int       `json:"failed"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProcessUpdatedEvent is the inbound catalog change notification. ProcessID
// may be empty; the subject carries it too.
type ProcessUpdatedEvent struct {
	ProcessID string `json:"process_id,omitempty"`
}
