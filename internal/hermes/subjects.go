package hermes

import "strings"

const (
	SubjectWeightsDerived    = "prioritizer.weights.derived"
	SubjectRatingsRecomputed = "prioritizer.ratings.recomputed"
	// SubjectProcessUpdated matches catalog changes published by the process owner.
	SubjectProcessUpdated = "prioritizer.process.*.updated"

	StreamName     = "PRIORITIZER_EVENTS"
	StreamSubjects = "prioritizer.>"
	StreamMaxAge   = "720h" // 30 days
)

func SubjectUseCaseRated(useCaseID string) string  { return "prioritizer.usecase." + useCaseID + ".rated" }
func SubjectUseCaseFailed(useCaseID string) string { return "prioritizer.usecase." + useCaseID + ".failed" }
func SubjectProcessChanged(processID string) string {
	return "prioritizer.process." + processID + ".updated"
}

// ProcessIDFromSubject extracts the process id from a process.*.updated subject.
func ProcessIDFromSubject(subject string) (string, bool) {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 || parts[0] != "prioritizer" || parts[1] != "process" || parts[3] != "updated" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
