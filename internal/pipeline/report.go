package pipeline

import (
	"time"

	"depdoc/internal/extractor"
	"depdoc/internal/graph"
)

// ErrorKind categorizes entries in the run's error log.
type ErrorKind string

const (
	ErrParse                ErrorKind = "parse_error"
	ErrGenerationFailure    ErrorKind = "generation_failure"
	ErrGenerationExhausted  ErrorKind = "generation_exhausted"
	ErrSinkFailure          ErrorKind = "sink_failure"
	ErrOrchestrationFailure ErrorKind = "orchestration_failure"
)

// ErrorEntry is one attributed, timestamped failure record.
type ErrorEntry struct {
	Node    string    `json:"node"`
	Kind    ErrorKind `json:"kind"`
	Attempt int       `json:"attempt,omitempty"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Report is the structured outcome of a run: counts, cycle groups, per-node
// final state and attempts, and the full error log. Every node appears with
// exactly one terminal state.
type Report struct {
	TotalNodes    int                      `json:"total_nodes"`
	TotalEdges    int                      `json:"total_edges"`
	CycleGroups   [][]string               `json:"cycle_groups,omitempty"`
	States        map[string]graph.State   `json:"states"`
	Attempts      map[string]int           `json:"attempts"`
	Errors        []ErrorEntry             `json:"errors,omitempty"`
	ParseFailures []extractor.ParseFailure `json:"parse_failures,omitempty"`
}

// CompletionFraction reports the share of nodes that ended completed.
func (r *Report) CompletionFraction() float64 {
	if r.TotalNodes == 0 {
		return 1
	}
	completed := 0
	for _, s := range r.States {
		if s == graph.StateCompleted {
			completed++
		}
	}
	return float64(completed) / float64(r.TotalNodes)
}

// Counts returns how many nodes ended in each state.
func (r *Report) Counts() map[graph.State]int {
	counts := make(map[graph.State]int)
	for _, s := range r.States {
		counts[s]++
	}
	return counts
}
