package store

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

// ProcessWeights is a preloaded snapshot of the process catalog. It satisfies
// scoring.ProcessWeightResolver so ratings never touch the database.
type ProcessWeights map[string]map[string]float64

// ProcessResolver loads every process's value weights from s.
func ProcessResolver(ctx context.Context, s Store) (ProcessWeights, error) {
	procs, err := s.ListProcesses(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "load process catalog")
	}
	out := make(ProcessWeights, len(procs))
	for _, p := range procs {
		weights := make(map[string]float64, len(p.ValueWeights))
		for label, w := range p.ValueWeights {
			weights[label] = w
		}
		out[p.ID.String()] = weights
	}
	return out, nil
}

func (pw ProcessWeights) ProcessItemWeight(processID, label string) (float64, error) {
	weights, ok := pw[processID]
	if !ok {
		return 0, goerr.Wrap(ErrNotFound, "unknown process", goerr.V("process_id", processID))
	}
	w, ok := weights[label]
	if !ok {
		return 0, goerr.Wrap(scoring.ErrUnknownLabel, "process has no weight for item",
			goerr.V("process_id", processID), goerr.V(scoring.LabelKey, label))
	}
	return w, nil
}
