package in

import "context"

// EvaluateRequest mirrors the runner's "Evaluate invocation" parameters
// (§4.5).
type EvaluateRequest struct {
	EvaluatorKey string
	Categories   []string
	Sources      []string
	Hours        int
	Limit        int
	Overwrite    bool
	PipelineID   int64 // ambient
}

// EvaluatorService scores candidate articles with an LLM, per §4.3.
type EvaluatorService interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (scored int, err error)
}
