package deliverer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"newsroom/core/domain"
	"newsroom/core/port/in"
)

type fakePipelineRepo struct {
	email *domain.PipelineDeliveryEmail
	chat  *domain.PipelineDeliveryChat
}

func (f *fakePipelineRepo) GetByID(ctx context.Context, id int64) (*domain.Pipeline, error) { return nil, nil }
func (f *fakePipelineRepo) GetByName(ctx context.Context, name string) (*domain.Pipeline, error) {
	return nil, nil
}
func (f *fakePipelineRepo) List(ctx context.Context) ([]domain.Pipeline, error) { return nil, nil }
func (f *fakePipelineRepo) GetClass(ctx context.Context, classID int64) (*domain.PipelineClass, error) {
	return nil, nil
}
func (f *fakePipelineRepo) GetFilters(ctx context.Context, pipelineID int64) (*domain.PipelineFilters, error) {
	return nil, nil
}
func (f *fakePipelineRepo) GetWriter(ctx context.Context, pipelineID int64) (*domain.PipelineWriter, error) {
	return nil, nil
}
func (f *fakePipelineRepo) GetDeliveryEmail(ctx context.Context, pipelineID int64) (*domain.PipelineDeliveryEmail, error) {
	return f.email, nil
}
func (f *fakePipelineRepo) GetDeliveryChat(ctx context.Context, pipelineID int64) (*domain.PipelineDeliveryChat, error) {
	return f.chat, nil
}

type fakeEmailSender struct {
	to, subject, html, plain string
	calls                    int
}

func (f *fakeEmailSender) SendHTML(ctx context.Context, to, subject, html, plainTextFallback string) error {
	f.to, f.subject, f.html, f.plain = to, subject, html, plainTextFallback
	f.calls++
	return nil
}

type fakeChatSender struct {
	sentTo   []string
	allChats []string
}

func (f *fakeChatSender) SendCard(ctx context.Context, chatID, title, markdown string) error {
	f.sentTo = append(f.sentTo, chatID)
	return nil
}
func (f *fakeChatSender) ResolveAllChats(ctx context.Context) ([]string, error) {
	return f.allChats, nil
}

func TestDeliverChat_ToAllOverrideResolvesEveryChat(t *testing.T) {
	pipelines := &fakePipelineRepo{chat: &domain.PipelineDeliveryChat{ChatID: "stored-chat", ToAllChat: false}}
	chat := &fakeChatSender{allChats: []string{"c1", "c2"}}
	svc := New(pipelines, &fakeEmailSender{}, chat, Config{})

	err := svc.Deliver(context.Background(), in.DeliverRequest{PipelineID: 1, ToAllOverride: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chat.sentTo) != 2 {
		t.Fatalf("expected the --to-all override to resolve and send to every chat, got %v", chat.sentTo)
	}
}

func TestDeliverChat_ChatIDOverrideWinsOverStoredToAll(t *testing.T) {
	pipelines := &fakePipelineRepo{chat: &domain.PipelineDeliveryChat{ChatID: "stored-chat", ToAllChat: true}}
	chat := &fakeChatSender{allChats: []string{"c1", "c2"}}
	svc := New(pipelines, &fakeEmailSender{}, chat, Config{})

	err := svc.Deliver(context.Background(), in.DeliverRequest{PipelineID: 1, ChatIDOverride: "override-chat"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chat.sentTo) != 1 || chat.sentTo[0] != "override-chat" {
		t.Fatalf("expected --chat-id to override the stored to_all_chat target, got %v", chat.sentTo)
	}
}

func TestDeliverChat_NoOverrideUsesStoredTarget(t *testing.T) {
	pipelines := &fakePipelineRepo{chat: &domain.PipelineDeliveryChat{ChatID: "stored-chat", ToAllChat: false}}
	chat := &fakeChatSender{allChats: []string{"c1", "c2"}}
	svc := New(pipelines, &fakeEmailSender{}, chat, Config{})

	if err := svc.Deliver(context.Background(), in.DeliverRequest{PipelineID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chat.sentTo) != 1 || chat.sentTo[0] != "stored-chat" {
		t.Fatalf("expected the stored chat_id used when no override is given, got %v", chat.sentTo)
	}
}

func TestDeliverEmail_PlainOnlyWritesArtifactSiblings(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "20260729-103000.html")
	if err := os.WriteFile(htmlPath, []byte("<p>hi</p>"), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}

	pipelines := &fakePipelineRepo{email: &domain.PipelineDeliveryEmail{Email: "a@b.com"}}
	email := &fakeEmailSender{}
	svc := New(pipelines, email, &fakeChatSender{}, Config{})

	digest := in.Digest{HTML: "<p>hi</p>", Plain: "hi", ArtifactPath: htmlPath}
	err := svc.Deliver(context.Background(), in.DeliverRequest{PipelineID: 1, Digest: digest, PlainOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.calls != 1 {
		t.Fatalf("expected SendHTML called once, got %d", email.calls)
	}
	if _, err := os.Stat(filepath.Join(dir, "20260729-103000.txt")); err != nil {
		t.Fatalf("expected .txt sibling written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "20260729-103000.eml")); err != nil {
		t.Fatalf("expected .eml sibling written: %v", err)
	}
}

func TestDeliver_BothTargetsConfiguredIsInvariantError(t *testing.T) {
	pipelines := &fakePipelineRepo{
		email: &domain.PipelineDeliveryEmail{Email: "a@b.com"},
		chat:  &domain.PipelineDeliveryChat{ChatID: "c1"},
	}
	svc := New(pipelines, &fakeEmailSender{}, &fakeChatSender{}, Config{})
	if err := svc.Deliver(context.Background(), in.DeliverRequest{PipelineID: 1}); err == nil {
		t.Fatal("expected an error when both email and chat targets are configured")
	}
}
