package out

import "context"

// EmailSender delivers a rendered digest by e-mail (§9 "two delivery
// transports").
type EmailSender interface {
	SendHTML(ctx context.Context, to, subject, html, plainTextFallback string) error
}

// ChatSender delivers a rendered digest to a chat channel/group.
type ChatSender interface {
	SendCard(ctx context.Context, chatID, title, markdown string) error
	// ResolveAllChats lists every chat the bound app has joined, used when
	// PipelineDeliveryChat.ToAllChat is set.
	ResolveAllChats(ctx context.Context) ([]string, error)
}
