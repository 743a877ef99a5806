package in

import "context"

// DeliverRequest carries the rendered digest plus the plain-only flag
// (§4.5 "Deliver invocation").
type DeliverRequest struct {
	PipelineID int64
	Digest     Digest
	PlainOnly  bool

	// ChatIDOverride/ToAllOverride let `deliver-chat --chat-id`/`--to-all`
	// override the pipeline's stored chat delivery target for this one run
	// (§6 "CLI surface"), grounded on feishu_deliver.py's --chat-id/--to-all
	// flags layered on top of its DB-loaded delivery config.
	ChatIDOverride string
	ToAllOverride  bool
}

// DelivererService sends a composed digest via exactly one transport,
// resolved from the pipeline's delivery configuration (I1).
type DelivererService interface {
	Deliver(ctx context.Context, req DeliverRequest) error
}
