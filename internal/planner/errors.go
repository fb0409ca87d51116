package planner

import (
	"fmt"
)

// ParseError reports a model reply that could not be turned into a meals
// payload: no JSON-shaped substring, invalid syntax, or a missing meals
// array. Recoverable inside the retry loop.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "failed to parse model response: " + e.Msg
}

// DuplicateMealError reports a meal rejected by the similarity checker.
// Recoverable inside the retry loop.
type DuplicateMealError struct {
	Day    int
	Name   string
	Reason string
}

func (e *DuplicateMealError) Error() string {
	return fmt.Sprintf("meal %q on day %d duplicates an earlier meal: %s", e.Name, e.Day, e.Reason)
}

// ExhaustedRetriesError is terminal: the attempt ceiling was hit for a day
// (generation) or a revision batch. It wraps the last underlying failure.
type ExhaustedRetriesError struct {
	Day      int
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	if e.Day == 0 {
		return fmt.Sprintf("revision failed after %d attempts: %v", e.Attempts, e.Last)
	}
	return fmt.Sprintf("day %d failed after %d attempts: %v", e.Day, e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}
