package in

import "context"

// RunRequest mirrors the runner's CLI surface (§4.5 "Inputs").
type RunRequest struct {
	Name         string
	ID           int64
	All          bool
	DebugOnly    bool
	IgnoreWeekday bool
}

// PipelineOutcome is the terminal state reached by one pipeline run
// (§4.5 "State machine per pipeline").
type PipelineOutcome struct {
	PipelineID int64
	State      string // Done, Skipped, Skipped(debug), Skipped(weekday), Aborted(class), Failed(step)
	Err        error
}

// RunnerService is the top-level controller invoking Collector → Evaluator
// → Composer → Deliverer for one or more pipelines (§4.5).
type RunnerService interface {
	Run(ctx context.Context, req RunRequest) ([]PipelineOutcome, error)
}
