package entities

// ItemOutcome is the terminal state of one scheduled unit of work.
type ItemOutcome string

const (
	// OutcomePersisted means a new row was inserted.
	OutcomePersisted ItemOutcome = "persisted"
	// OutcomeUpdated means an existing row was rewritten with a fresh result.
	OutcomeUpdated ItemOutcome = "updated"
	// OutcomeUnchanged means the item completed but no write was needed.
	OutcomeUnchanged ItemOutcome = "unchanged"
	// OutcomeSkippedTransient means retries were exhausted on a retryable failure.
	OutcomeSkippedTransient ItemOutcome = "skipped_transient"
	// OutcomeSkippedFatal means a non-retryable failure (malformed response,
	// store write error) terminated the item.
	OutcomeSkippedFatal ItemOutcome = "skipped_fatal"
)

// ItemResult records the terminal state of one item in a run.
type ItemResult struct {
	Kind    Kind
	Surface string
	Reading string
	Outcome ItemOutcome
	Err     error
}

// RunSummary reports what a pipeline run did, item by item.
type RunSummary struct {
	RunID   string
	Results []ItemResult
}

// Count returns how many items ended in the given outcome.
func (s *RunSummary) Count(outcome ItemOutcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failures returns the items that were skipped, with their reasons.
func (s *RunSummary) Failures() []ItemResult {
	var failed []ItemResult
	for _, r := range s.Results {
		if r.Outcome == OutcomeSkippedTransient || r.Outcome == OutcomeSkippedFatal {
			failed = append(failed, r)
		}
	}
	return failed
}
