package out

import "context"

// Completer is the outbound port for the evaluator's LLM calls. It is
// satisfied by core/service/llm.Client, kept narrow to the two completion
// shapes the evaluator actually needs (§4.3).
type Completer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
