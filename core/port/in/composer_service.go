package in

import "context"

// Digest is the composer's rendered output, ready for the deliverer (§4.4).
type Digest struct {
	HTML     string // non-empty for e-mail writers
	Markdown string // non-empty for chat writers
	Minigame string // non-empty for minigame writers (§4.4 "Minigame digest")
	Plain    string // plain-text fallback
	Count    int    // number of articles included

	// ArtifactPath is the on-disk path Compose persisted the primary
	// rendering to: data/output/pipeline-<id>/<YYYYMMDD-HHMMSS>.{html,md} (§6
	// "Artifact layout"). Populated by Compose; deliver-email/deliver-chat
	// read this file instead of re-composing (§4.5 "Deliver invocation").
	ArtifactPath string
}

// ComposeRequest identifies which pipeline's writer configuration to use.
type ComposeRequest struct {
	PipelineID   int64
	EvaluatorKey string
	WeightsOverride map[string]float64
	SourceBonusOverride map[string]float64
}

// ComposerService renders a digest from stored scores and metadata (§4.4).
type ComposerService interface {
	Compose(ctx context.Context, req ComposeRequest) (*Digest, error)
}
